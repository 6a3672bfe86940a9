package storage

import (
	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/codec"
	"github.com/ivan-cunha/prism-parquet/internal/encoding"
)

var (
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrEncoding            = codec.ErrEncoding
	ErrRowCountMismatch    = errors.New("row count mismatch")
	ErrInvalidState        = errors.New("invalid state")
	ErrIO                  = errors.New("i/o error")
	ErrFooterSerialization = encoding.ErrFooterSerialization
)

// IOError is a failed write to the sink. It matches ErrIO and unwraps to the
// sink's error.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
