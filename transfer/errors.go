package transfer

import (
	"errors"
)

var (
	ErrTruncated          = errors.New("transfer: truncated data")
	ErrBadMagic           = errors.New("transfer: bad magic")
	ErrUnsupportedVersion = errors.New("transfer: unsupported version")
	ErrChecksum           = errors.New("transfer: checksum mismatch")
	ErrTrailingData       = errors.New("transfer: trailing data")
	ErrInvalidOffsets     = errors.New("transfer: exclude offsets not strictly ascending")
	ErrInvalidCount       = errors.New("transfer: segment count out of range")
	ErrFrameTooLarge      = errors.New("transfer: frame too large")
)

// DecodeError is returned when transfer data cannot be turned back into a
// batch. Field names the part of the wire form that failed.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + " (" + e.Field + ")"
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(field string, err error) error {
	return &DecodeError{Field: field, Err: err}
}
