package storage

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ivan-cunha/prism-parquet/internal/codec"
	"github.com/ivan-cunha/prism-parquet/internal/encoding"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// RowGroupWriter transposes rows into one ColumnWriter per schema column
// and emits the finished chunks in schema order.
type RowGroupWriter struct {
	sink       *OffsetWriter
	schema     types.Schema
	columns    []*ColumnWriter
	concurrent bool

	numRows int64
	closed  bool
}

// NewRowGroupWriter creates the column writers. Nothing is written to sink
// until Close. configs holds one codec configuration per schema column.
func NewRowGroupWriter(sink *OffsetWriter, schema types.Schema, factory codec.Factory, configs []codec.Config, concurrent bool) (*RowGroupWriter, error) {
	if len(configs) != len(schema.Columns) {
		return nil, errors.Errorf("got %d codec configurations for %d columns", len(configs), len(schema.Columns))
	}

	columns := make([]*ColumnWriter, len(schema.Columns))
	for i, col := range schema.Columns {
		cw, err := NewColumnWriter(col, factory, configs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "creating writer for column %s", col.Name)
		}
		columns[i] = cw
	}

	return &RowGroupWriter{
		sink:       sink,
		schema:     schema,
		columns:    columns,
		concurrent: concurrent,
	}, nil
}

// AddRow appends one row. The row is checked against the schema before any
// column sees it, so an ErrSchemaMismatch leaves the row group untouched.
// Any other error means the row was partially delivered.
func (rg *RowGroupWriter) AddRow(row types.Row) error {
	if rg.closed {
		return errors.Wrap(ErrInvalidState, "row group is closed")
	}
	if len(row) != len(rg.schema.Columns) {
		return errors.Wrapf(ErrSchemaMismatch, "row has %d values, schema has %d columns", len(row), len(rg.schema.Columns))
	}
	for i, col := range rg.schema.Columns {
		if err := types.CheckValue(col, row[i]); err != nil {
			return errors.Wrap(ErrSchemaMismatch, err.Error())
		}
	}

	for i, cw := range rg.columns {
		var validity []bool
		if rg.schema.Columns[i].Nullable {
			validity = []bool{row[i] != nil}
		}
		if err := cw.WriteValues([]types.Value{row[i]}, validity); err != nil {
			return err
		}
	}
	rg.numRows++
	return nil
}

func (rg *RowGroupWriter) NumRows() int64 { return rg.numRows }

// EstimatedSize is the approximate encoded size of the buffered chunks.
func (rg *RowGroupWriter) EstimatedSize() int64 {
	var n int64
	for _, cw := range rg.columns {
		n += int64(cw.EstimatedSize())
	}
	return n
}

// Close finalizes every column, checks that all of them hold the same number
// of rows, then appends the chunks to the sink. No byte is written when a
// column fails or disagrees on the row count.
func (rg *RowGroupWriter) Close() (encoding.RowGroupMetadata, error) {
	if rg.closed {
		return encoding.RowGroupMetadata{}, errors.Wrap(ErrInvalidState, "row group is closed")
	}
	rg.closed = true

	results, err := rg.closeColumns()
	if err != nil {
		return encoding.RowGroupMetadata{}, err
	}

	for i, res := range results {
		if res.RowsWritten != rg.numRows {
			return encoding.RowGroupMetadata{}, errors.Wrapf(ErrRowCountMismatch,
				"column %s holds %d rows, row group has %d", rg.schema.Columns[i].Name, res.RowsWritten, rg.numRows)
		}
	}

	md := encoding.RowGroupMetadata{
		NumRows: rg.numRows,
		Columns: make([]encoding.ColumnChunkMetadata, len(results)),
	}
	for i := range results {
		res := &results[i]
		offset := rg.sink.Offset()
		if _, err := rg.sink.Write(res.Data); err != nil {
			return encoding.RowGroupMetadata{}, &IOError{Op: "writing column chunk " + rg.schema.Columns[i].Name, Err: err}
		}
		res.Data = nil

		md.Columns[i] = encoding.ColumnChunkMetadata{
			Column:           rg.schema.Columns[i],
			Offset:           offset,
			NumRows:          res.RowsWritten,
			NumValues:        res.Chunk.NumValues,
			NumPages:         res.Chunk.NumPages,
			UncompressedSize: res.Chunk.UncompressedSize,
			CompressedSize:   res.BytesWritten,
			Encodings:        res.Chunk.Encodings,
			Codec:            res.Chunk.Codec,
			Statistics:       res.Chunk.Statistics,
		}
		md.TotalByteSize += res.Chunk.UncompressedSize
	}
	return md, nil
}

func (rg *RowGroupWriter) closeColumns() ([]ColumnResult, error) {
	results := make([]ColumnResult, len(rg.columns))

	if !rg.concurrent {
		for i, cw := range rg.columns {
			res, err := cw.Close()
			if err != nil {
				return nil, errors.Wrapf(err, "closing column %s", cw.Column().Name)
			}
			results[i] = res
		}
		return results, nil
	}

	var g errgroup.Group
	for i, cw := range rg.columns {
		g.Go(func() error {
			res, err := cw.Close()
			if err != nil {
				return errors.Wrapf(err, "closing column %s", cw.Column().Name)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
