package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/born-ml/descent/internal/tensor"
)

func sampleFile(t *testing.T) *File {
	t.Helper()
	m, err := tensor.FromSlice([]float32{0.5, -1.25, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	return &File{
		Kind: "adam",
		Tensors: map[string]*tensor.RawTensor{
			"n_step":           tensor.Full(tensor.Shape{}, tensor.Float64, 12),
			"group.0.m.0":      m,
			"group.0.values.0": tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32),
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	src := sampleFile(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "adam", got.Kind)
	require.Len(t, got.Tensors, len(src.Tensors))
	for name, want := range src.Tensors {
		g := got.Tensors[name]
		require.NotNil(t, g, name)
		assert.True(t, want.Shape().Equal(g.Shape()), name)
		assert.Equal(t, want.DType(), g.DType(), name)
		assert.Equal(t, want.Float64s(), g.Float64s(), name)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	a := Marshal(sampleFile(t))
	b := Marshal(sampleFile(t))
	assert.Equal(t, a, b)
}

func TestUnmarshal_InvalidMagic(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, fileMagic, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("GGUF"))
	b = protowire.AppendTag(b, fileVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, FormatVersion)

	_, err := Unmarshal(b)
	require.ErrorIs(t, err, ErrInvalidMagic)

	_, err = Unmarshal(nil)
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestUnmarshal_UnsupportedVersion(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, fileMagic, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(Magic))
	b = protowire.AppendTag(b, fileVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, FormatVersion+1)

	_, err := Unmarshal(b)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnmarshal_Truncated(t *testing.T) {
	b := Marshal(sampleFile(t))
	_, err := Unmarshal(b[:len(b)-3])
	require.ErrorIs(t, err, ErrMalformed)
}

func TestUnmarshal_DataSizeMismatch(t *testing.T) {
	var tb []byte
	tb = protowire.AppendTag(tb, tensorName, protowire.BytesType)
	tb = protowire.AppendString(tb, "bad")
	tb = protowire.AppendTag(tb, tensorDType, protowire.VarintType)
	tb = protowire.AppendVarint(tb, uint64(tensor.Float32))
	tb = protowire.AppendTag(tb, tensorShape, protowire.BytesType)
	tb = protowire.AppendBytes(tb, protowire.AppendVarint(nil, 4))
	tb = protowire.AppendTag(tb, tensorData, protowire.BytesType)
	tb = protowire.AppendBytes(tb, make([]byte, 3))

	b := Marshal(&File{Kind: "sgd"})
	b = protowire.AppendTag(b, fileTensor, protowire.BytesType)
	b = protowire.AppendBytes(b, tb)

	_, err := Unmarshal(b)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestUnmarshal_DuplicateTensor(t *testing.T) {
	x := tensor.Full(tensor.Shape{1}, tensor.Float32, 1)
	b := Marshal(&File{Kind: "sgd", Tensors: map[string]*tensor.RawTensor{"x": x}})
	b = protowire.AppendTag(b, fileTensor, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalTensor("x", x))

	_, err := Unmarshal(b)
	require.ErrorIs(t, err, ErrDuplicateTensor)
}

func TestUnmarshal_ChecksumMismatch(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1.5, 7}, tensor.Shape{2})
	require.NoError(t, err)
	b := Marshal(&File{Kind: "sgd", Tensors: map[string]*tensor.RawTensor{"x": x}})

	// 1.5 is 0x3fc00000; rewrite it as 2.0 (0x40000000).
	i := bytes.Index(b, []byte{0x00, 0x00, 0xc0, 0x3f})
	require.GreaterOrEqual(t, i, 0)
	copy(b[i:], []byte{0x00, 0x00, 0x00, 0x40})

	_, err = Unmarshal(b)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

// rawRecord encodes a tensor record without validating it.
func rawRecord(dtype tensor.DataType, shape []uint64, data []byte) []byte {
	var packed []byte
	for _, d := range shape {
		packed = protowire.AppendVarint(packed, d)
	}
	var b []byte
	b = protowire.AppendTag(b, tensorName, protowire.BytesType)
	b = protowire.AppendString(b, "x")
	b = protowire.AppendTag(b, tensorDType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(dtype))
	b = protowire.AppendTag(b, tensorShape, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	b = protowire.AppendTag(b, tensorData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	return b
}

// sealedFile wraps one record in a file with a correct checksum.
func sealedFile(record []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, fileMagic, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(Magic))
	b = protowire.AppendTag(b, fileVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, FormatVersion)
	b = protowire.AppendTag(b, fileKind, protowire.BytesType)
	b = protowire.AppendString(b, "sgd")
	b = protowire.AppendTag(b, fileTensor, protowire.BytesType)
	b = protowire.AppendBytes(b, record)
	sum := sha256.Sum256(record)
	b = protowire.AppendTag(b, fileSum, protowire.BytesType)
	b = protowire.AppendBytes(b, sum[:])
	return b
}

func TestUnmarshal_OverflowingShape(t *testing.T) {
	for name, record := range map[string][]byte{
		"huge dim":          rawRecord(tensor.Float32, []uint64{1<<62 + 1}, make([]byte, 4)),
		"dim beyond int":    rawRecord(tensor.Float32, []uint64{1 << 63}, make([]byte, 4)),
		"product overflows": rawRecord(tensor.Float64, []uint64{1 << 32, 1 << 32}, make([]byte, 8)),
		"zero dim":          rawRecord(tensor.Float32, []uint64{0}, nil),
		"short data":        rawRecord(tensor.Float32, []uint64{2, 3}, make([]byte, 20)),
		"bad dtype":         rawRecord(tensor.DataType(7), []uint64{1}, make([]byte, 4)),
	} {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Unmarshal(sealedFile(record)) })
			require.ErrorIs(t, err, ErrMalformed)
		})
	}

	// The same framing with a consistent record decodes.
	f, err := Unmarshal(sealedFile(rawRecord(tensor.Float32, []uint64{2}, make([]byte, 8))))
	require.NoError(t, err)
	assert.True(t, f.Tensors["x"].Shape().Equal(tensor.Shape{2}))
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	b := Marshal(sampleFile(t))
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 0xdeadbeef)

	f, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Len(t, f.Tensors, 3)
}
