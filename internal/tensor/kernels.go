package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/descent/internal/parallel"
)

// Parallelism used by the element-wise and matmul kernels.
var Parallelism = parallel.DefaultConfig()

// CPU kernels. All of them allocate a fresh result and leave their inputs
// untouched. Binary kernels accept equal shapes, or one operand holding a
// single element which is broadcast over the other.

// Add returns a + b.
func Add(a, b *RawTensor) *RawTensor {
	return elementwise(a, b, "add", func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func Sub(a, b *RawTensor) *RawTensor {
	return elementwise(a, b, "sub", func(x, y float64) float64 { return x - y })
}

// Mul returns a * b element-wise.
func Mul(a, b *RawTensor) *RawTensor {
	return elementwise(a, b, "mul", func(x, y float64) float64 { return x * y })
}

// Div returns a / b element-wise.
func Div(a, b *RawTensor) *RawTensor {
	return elementwise(a, b, "div", func(x, y float64) float64 { return x / y })
}

// Scale returns x * s.
func Scale(x *RawTensor, s float64) *RawTensor {
	return unary(x, func(v float64) float64 { return v * s })
}

// Sqrt returns the element-wise square root of x.
func Sqrt(x *RawTensor) *RawTensor {
	return unary(x, math.Sqrt)
}

// Sum reduces x to a scalar (shape []).
func Sum(x *RawTensor) *RawTensor {
	out := Zeros(Shape{}, x.dtype)
	switch x.dtype {
	case Float32:
		var s float32
		for _, v := range Data[float32](x) {
			s += v
		}
		Data[float32](out)[0] = s
	case Float64:
		var s float64
		for _, v := range Data[float64](x) {
			s += v
		}
		Data[float64](out)[0] = s
	}
	return out
}

// Expand broadcasts a single-element tensor to shape.
func Expand(x *RawTensor, shape Shape) *RawTensor {
	if x.NumElements() != 1 {
		panic(fmt.Sprintf("expand: tensor %v is not a single element", x.shape))
	}
	return Full(shape, x.dtype, x.At(0))
}

// ReduceTo sums a gradient back down to shape. It undoes the single-element
// broadcast performed by the binary kernels.
func ReduceTo(grad *RawTensor, shape Shape) *RawTensor {
	if grad.shape.Equal(shape) {
		return grad.Clone()
	}
	if shape.NumElements() != 1 {
		panic(fmt.Sprintf("reduce: cannot reduce %v to %v", grad.shape, shape))
	}
	s := Sum(grad)
	s.shape = shape.Clone()
	return s
}

// MatMul multiplies two 2-D tensors: (M, K) @ (K, N) -> (M, N).
func MatMul(a, b *RawTensor) *RawTensor {
	if len(a.shape) != 2 || len(b.shape) != 2 || a.shape[1] != b.shape[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v and %v", a.shape, b.shape))
	}
	if a.dtype != b.dtype {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.dtype, b.dtype))
	}
	out := Zeros(Shape{a.shape[0], b.shape[1]}, a.dtype)
	switch a.dtype {
	case Float32:
		matmul(Data[float32](a), Data[float32](b), Data[float32](out), a.shape[0], a.shape[1], b.shape[1])
	case Float64:
		matmul(Data[float64](a), Data[float64](b), Data[float64](out), a.shape[0], a.shape[1], b.shape[1])
	}
	return out
}

// Transpose swaps the two axes of a 2-D tensor.
func Transpose(x *RawTensor) *RawTensor {
	if len(x.shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2-D tensor, got %v", x.shape))
	}
	rows, cols := x.shape[0], x.shape[1]
	out := Zeros(Shape{cols, rows}, x.dtype)
	switch x.dtype {
	case Float32:
		transpose(Data[float32](x), Data[float32](out), rows, cols)
	case Float64:
		transpose(Data[float64](x), Data[float64](out), rows, cols)
	}
	return out
}

func elementwise(a, b *RawTensor, op string, f func(x, y float64) float64) *RawTensor {
	if a.dtype != b.dtype {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.dtype, b.dtype))
	}
	shape := a.shape
	switch {
	case a.shape.Equal(b.shape):
	case b.NumElements() == 1:
	case a.NumElements() == 1:
		shape = b.shape
	default:
		panic(fmt.Sprintf("%s: shapes %v and %v are not compatible", op, a.shape, b.shape))
	}
	out := Zeros(shape, a.dtype)
	switch a.dtype {
	case Float32:
		apply2(Data[float32](a), Data[float32](b), Data[float32](out), f)
	case Float64:
		apply2(Data[float64](a), Data[float64](b), Data[float64](out), f)
	}
	return out
}

func unary(x *RawTensor, f func(float64) float64) *RawTensor {
	out := Zeros(x.shape, x.dtype)
	switch x.dtype {
	case Float32:
		src, dst := Data[float32](x), Data[float32](out)
		parallel.Chunks(len(dst), Parallelism, func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = float32(f(float64(src[i])))
			}
		})
	case Float64:
		src, dst := Data[float64](x), Data[float64](out)
		parallel.Chunks(len(dst), Parallelism, func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(src[i])
			}
		})
	}
	return out
}

func apply2[T Float](a, b, out []T, f func(x, y float64) float64) {
	parallel.Chunks(len(out), Parallelism, func(start, end int) {
		for i := start; i < end; i++ {
			x, y := a[0], b[0]
			if len(a) > 1 {
				x = a[i]
			}
			if len(b) > 1 {
				y = b[i]
			}
			out[i] = T(f(float64(x), float64(y)))
		}
	})
}

func matmul[T Float](a, b, out []T, m, k, n int) {
	parallel.Rows(m, k*n, Parallelism, func(start, end int) {
		for i := start; i < end; i++ {
			for p := 0; p < k; p++ {
				av := a[i*k+p]
				for j := 0; j < n; j++ {
					out[i*n+j] += av * b[p*n+j]
				}
			}
		}
	})
}

func transpose[T Float](src, dst []T, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
}
