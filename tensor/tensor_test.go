package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/tensor"
)

func TestPublicAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 4, 9}, tensor.Shape{3})
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, x.DType())

	y := tensor.Sqrt(x)
	assert.Equal(t, []float64{1, 2, 3}, tensor.Data[float64](y))

	s := tensor.Sum(tensor.Mul(y, tensor.Full(tensor.Shape{1}, tensor.Float64, 2)))
	assert.InDelta(t, 12.0, s.At(0), 1e-12)

	z := tensor.ZerosLike(x)
	assert.True(t, z.Shape().Equal(x.Shape()))
	assert.Equal(t, []float64{0, 0, 0}, z.Float64s())
}

func TestPublicAPI_BytesRoundTrip(t *testing.T) {
	x, err := tensor.FromSlice([]float32{0.5, -2}, tensor.Shape{2, 1})
	require.NoError(t, err)

	y, err := tensor.FromBytes(x.Bytes(), x.Shape(), x.DType())
	require.NoError(t, err)
	assert.Equal(t, tensor.Data[float32](x), tensor.Data[float32](y))

	_, err = tensor.NewRaw(tensor.Shape{0}, tensor.Float32)
	require.Error(t, err)
}
