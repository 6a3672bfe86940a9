// Package codec encodes the values of one column chunk into Parquet data
// pages.
package codec

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go/format"
	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/compression"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

const DefaultPageSize = 1 << 20

var ErrEncoding = errors.New("encoding error")

// EncodingError reports a value or batch rejected by a codec.
type EncodingError struct {
	Column string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Column, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// Codec turns batches of values into the bytes of one column chunk. The
// destination buffer is only borrowed for the duration of each call.
type Codec interface {
	// WriteValues appends a batch. validity may be nil, in which case nil
	// values are nulls; otherwise it must have one entry per value.
	WriteValues(dst *bytes.Buffer, values []types.Value, validity []bool) error
	// EstimatedSize is the number of bytes the chunk would occupy if it were
	// closed now.
	EstimatedSize() int
	// Close flushes buffered state into dst. The codec must not be used
	// afterwards.
	Close(dst *bytes.Buffer) (ChunkResult, error)
}

type Config struct {
	Compressor compression.Compressor
	PageSize   int
}

// Factory builds a fresh codec for one column.
type Factory func(col types.Column, cfg Config) (Codec, error)

// Statistics holds chunk statistics. Min and Max are PLAIN encoded without a
// length prefix and only meaningful when HasMinMax is set.
type Statistics struct {
	NullCount     int64
	DistinctCount int64
	HasMinMax     bool
	Min, Max      []byte
}

type ChunkResult struct {
	BytesWritten     int64
	NumRows          int64
	NumValues        int64
	NumPages         int
	UncompressedSize int64
	CompressedSize   int64
	Encodings        []format.Encoding
	Codec            format.CompressionCodec
	Statistics       Statistics
}
