package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// RawTensor is the low-level tensor representation: a contiguous,
// row-major byte buffer tagged with a shape and a data type.
//
// RawTensor values are mutable. The optimizers rely on that to update
// parameters and auxiliary state in place.
type RawTensor struct {
	data  []byte
	shape Shape
	dtype DataType
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid dtype %d", int(dtype))
	}
	return &RawTensor{
		data:  make([]byte, shape.NumElements()*dtype.Size()),
		shape: shape.Clone(),
		dtype: dtype,
	}, nil
}

// Zeros is NewRaw for callers that already know the shape is valid.
// It panics on an invalid shape or dtype.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return r
}

// ZerosLike returns a zero-filled tensor with the shape and dtype of r.
func ZerosLike(r *RawTensor) *RawTensor {
	return Zeros(r.shape, r.dtype)
}

// FromSlice creates a RawTensor holding a copy of data.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	r, err := NewRaw(shape, dataTypeOf[T]())
	if err != nil {
		return nil, err
	}
	copy(Data[T](r), data)
	return r, nil
}

// Full creates a tensor of the given shape filled with value.
func Full(shape Shape, dtype DataType, value float64) *RawTensor {
	r := Zeros(shape, dtype)
	r.Fill(value)
	return r
}

// Data returns the elements of r as a []T without copying.
// Panics if T does not match the tensor's dtype.
func Data[T Float](r *RawTensor) []T {
	if want := dataTypeOf[T](); r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Bytes returns the tensor data in little-endian byte order.
func (r *RawTensor) Bytes() []byte {
	out := make([]byte, len(r.data))
	switch r.dtype {
	case Float32:
		for i, v := range Data[float32](r) {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
	case Float64:
		for i, v := range Data[float64](r) {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
	}
	return out
}

// FromBytes creates a tensor from little-endian encoded data.
//
// The length of b is checked against shape before anything is allocated.
func FromBytes(b []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid dtype %d", int(dtype))
	}
	have := len(b) / dtype.Size()
	elems := 1
	for _, d := range shape {
		if d > have/elems {
			return nil, fmt.Errorf("data is %d bytes, too short for shape %v of %s", len(b), shape, dtype)
		}
		elems *= d
	}
	if len(b) != elems*dtype.Size() {
		return nil, fmt.Errorf("data is %d bytes, shape %v of %s needs %d", len(b), shape, dtype, elems*dtype.Size())
	}
	r, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		dst := Data[float32](r)
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
	case Float64:
		dst := Data[float64](r)
		for i := range dst {
			dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	}
	return r, nil
}

// Clone returns a deep copy of r.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{data: data, shape: r.shape.Clone(), dtype: r.dtype}
}

// CopyFrom overwrites r's elements with src's. Shapes and dtypes must match.
func (r *RawTensor) CopyFrom(src *RawTensor) {
	r.mustMatch(src, "copy")
	copy(r.data, src.data)
}

// Fill sets every element to value.
func (r *RawTensor) Fill(value float64) {
	switch r.dtype {
	case Float32:
		fill(Data[float32](r), float32(value))
	case Float64:
		fill(Data[float64](r), value)
	}
}

// At returns element i converted to float64.
func (r *RawTensor) At(i int) float64 {
	switch r.dtype {
	case Float32:
		return float64(Data[float32](r)[i])
	default:
		return Data[float64](r)[i]
	}
}

// Float64s returns a copy of the elements converted to float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s%v)", r.dtype, r.shape)
}

func (r *RawTensor) mustMatch(other *RawTensor, op string) {
	if r.dtype != other.dtype {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, r.dtype, other.dtype))
	}
	if !r.shape.Equal(other.shape) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, r.shape, other.shape))
	}
}

func fill[T Float](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}
