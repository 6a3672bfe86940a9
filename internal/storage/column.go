package storage

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/codec"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// ColumnWriter buffers the encoded chunk of one column so the row group can
// place chunks contiguously once every column is complete.
type ColumnWriter struct {
	column types.Column
	codec  codec.Codec
	buf    *bytes.Buffer
}

// ColumnResult is what a ColumnWriter hands over on Close. Data is owned by
// the caller.
type ColumnResult struct {
	BytesWritten int64
	RowsWritten  int64
	Chunk        codec.ChunkResult
	Data         []byte
}

func NewColumnWriter(col types.Column, factory codec.Factory, cfg codec.Config) (*ColumnWriter, error) {
	c, err := factory(col, cfg)
	if err != nil {
		return nil, err
	}
	return &ColumnWriter{
		column: col,
		codec:  c,
		buf:    new(bytes.Buffer),
	}, nil
}

func (w *ColumnWriter) Column() types.Column { return w.column }

func (w *ColumnWriter) WriteValues(values []types.Value, validity []bool) error {
	if w.buf == nil {
		return errors.Wrapf(ErrInvalidState, "column %s is closed", w.column.Name)
	}
	return w.codec.WriteValues(w.buf, values, validity)
}

func (w *ColumnWriter) EstimatedSize() int {
	if w.buf == nil {
		return 0
	}
	return w.codec.EstimatedSize()
}

// Close finalizes the codec and transfers the buffered bytes out. The writer
// cannot be used afterwards.
func (w *ColumnWriter) Close() (ColumnResult, error) {
	if w.buf == nil {
		return ColumnResult{}, errors.Wrapf(ErrInvalidState, "column %s is closed", w.column.Name)
	}
	buf := w.buf
	w.buf = nil

	chunk, err := w.codec.Close(buf)
	w.codec = nil
	if err != nil {
		return ColumnResult{}, err
	}

	return ColumnResult{
		BytesWritten: int64(buf.Len()),
		RowsWritten:  chunk.NumRows,
		Chunk:        chunk,
		Data:         buf.Bytes(),
	}, nil
}
