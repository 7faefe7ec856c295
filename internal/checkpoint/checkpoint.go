package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/born-ml/descent/internal/tensor"
)

// Format constants.
const (
	Magic         = "DSCT"
	FormatVersion = 1
)

// Field numbers.
const (
	fileMagic   protowire.Number = 1
	fileVersion protowire.Number = 2
	fileKind    protowire.Number = 3
	fileTensor  protowire.Number = 4
	fileSum     protowire.Number = 5

	tensorName  protowire.Number = 1
	tensorDType protowire.Number = 2
	tensorShape protowire.Number = 3
	tensorData  protowire.Number = 4
)

// File is the decoded content of a checkpoint.
type File struct {
	Kind    string
	Tensors map[string]*tensor.RawTensor
}

// Marshal encodes f.
func Marshal(f *File) []byte {
	var b []byte
	b = protowire.AppendTag(b, fileMagic, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(Magic))
	b = protowire.AppendTag(b, fileVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, FormatVersion)
	b = protowire.AppendTag(b, fileKind, protowire.BytesType)
	b = protowire.AppendString(b, f.Kind)

	h := sha256.New()
	for _, name := range slices.Sorted(maps.Keys(f.Tensors)) {
		t := marshalTensor(name, f.Tensors[name])
		h.Write(t)
		b = protowire.AppendTag(b, fileTensor, protowire.BytesType)
		b = protowire.AppendBytes(b, t)
	}
	b = protowire.AppendTag(b, fileSum, protowire.BytesType)
	b = protowire.AppendBytes(b, h.Sum(nil))
	return b
}

func marshalTensor(name string, t *tensor.RawTensor) []byte {
	var b []byte
	b = protowire.AppendTag(b, tensorName, protowire.BytesType)
	b = protowire.AppendString(b, name)
	b = protowire.AppendTag(b, tensorDType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.DType()))

	var shape []byte
	for _, d := range t.Shape() {
		shape = protowire.AppendVarint(shape, uint64(d))
	}
	b = protowire.AppendTag(b, tensorShape, protowire.BytesType)
	b = protowire.AppendBytes(b, shape)

	b = protowire.AppendTag(b, tensorData, protowire.BytesType)
	b = protowire.AppendBytes(b, t.Bytes())
	return b
}

// Unmarshal decodes a checkpoint.
func Unmarshal(b []byte) (*File, error) {
	f := &File{Tensors: make(map[string]*tensor.RawTensor)}
	var magic, sum []byte
	var version uint64
	h := sha256.New()

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fileMagic && typ == protowire.BytesType:
			magic = v
		case num == fileVersion && typ == protowire.VarintType:
			version = u
		case num == fileKind && typ == protowire.BytesType:
			f.Kind = string(v)
		case num == fileSum && typ == protowire.BytesType:
			sum = v
		case num == fileTensor && typ == protowire.BytesType:
			h.Write(v)
			name, t, err := unmarshalTensor(v)
			if err != nil {
				return err
			}
			if _, dup := f.Tensors[name]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateTensor, name)
			}
			f.Tensors[name] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if !bytes.Equal(sum, h.Sum(nil)) {
		return nil, ErrChecksumMismatch
	}
	return f, nil
}

func unmarshalTensor(b []byte) (string, *tensor.RawTensor, error) {
	var (
		name  string
		dtype tensor.DataType
		shape tensor.Shape
		data  []byte
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == tensorName && typ == protowire.BytesType:
			name = string(v)
		case num == tensorDType && typ == protowire.VarintType:
			dtype = tensor.DataType(u)
		case num == tensorShape && typ == protowire.BytesType:
			for len(v) > 0 {
				d, n := protowire.ConsumeVarint(v)
				if n < 0 {
					return fmt.Errorf("%w: shape: %v", ErrMalformed, protowire.ParseError(n))
				}
				if d == 0 || d > math.MaxInt {
					return fmt.Errorf("%w: dimension %d out of range", ErrMalformed, d)
				}
				shape = append(shape, int(d))
				v = v[n:]
			}
		case num == tensorData && typ == protowire.BytesType:
			data = v
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if err := checkSize(shape, dtype, len(data)); err != nil {
		return "", nil, fmt.Errorf("%w: tensor %q: %v", ErrMalformed, name, err)
	}
	t, err := tensor.FromBytes(data, shape, dtype)
	if err != nil {
		return "", nil, fmt.Errorf("%w: tensor %q: %v", ErrMalformed, name, err)
	}
	return name, t, nil
}

// checkSize verifies that shape holds exactly the elements in n bytes of
// dtype before anything is allocated. Dimensions come from the file, so
// the product is built without overflowing.
func checkSize(shape tensor.Shape, dtype tensor.DataType, n int) error {
	if !dtype.Valid() {
		return fmt.Errorf("invalid dtype %d", int(dtype))
	}
	if n%dtype.Size() != 0 {
		return fmt.Errorf("data is %d bytes, not a multiple of %s", n, dtype)
	}
	have := n / dtype.Size()
	elems := 1
	for _, d := range shape {
		if d > have/elems {
			return fmt.Errorf("shape %v exceeds %d elements of data", shape, have)
		}
		elems *= d
	}
	if elems != have {
		return fmt.Errorf("shape %v needs %d elements, data has %d", shape, elems, have)
	}
	return nil
}

// walk calls fn for every field in b. Length-delimited fields pass their
// payload in v, varints pass their value in u. Other wire types are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var err error
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			err = fn(num, typ, v, 0)
			n = m
		case protowire.VarintType:
			u, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			err = fn(num, typ, nil, u)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// Write encodes f to w.
func Write(w io.Writer, f *File) error {
	if _, err := w.Write(Marshal(f)); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Read decodes a checkpoint from r.
func Read(r io.Reader) (*File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return Unmarshal(b)
}
