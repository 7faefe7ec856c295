package checkpoint

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("checkpoint: invalid magic bytes")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")
	ErrMalformed          = errors.New("checkpoint: malformed data")
	ErrDuplicateTensor    = errors.New("checkpoint: duplicate tensor name")
	ErrChecksumMismatch   = errors.New("checkpoint: checksum mismatch")
)
