package storage

import (
	"context"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/codec"
	"github.com/ivan-cunha/prism-parquet/internal/encoding"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// FileIDKey is the key-value metadata entry holding the random file id.
const FileIDKey = "prism.file_id"

type Option func(*Writer)

func WithLogger(logger log.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

// WithCodecFactory replaces the codec used for every column chunk.
func WithCodecFactory(f codec.Factory) Option {
	return func(w *Writer) { w.factory = f }
}

// Writer streams rows into a Parquet file. It owns the sink until Finish
// returns or a fatal error occurs, after which it cannot be used again.
//
// Methods on Writer are not goroutine-safe.
type Writer struct {
	sink    *OffsetWriter
	schema  types.Schema
	cfg     Config
	logger  log.Logger
	metrics *Metrics
	factory codec.Factory
	codecs  []codec.Config
	fileID  string

	current   *RowGroupWriter
	rowGroups []encoding.RowGroupMetadata
	numRows   int64

	err      error
	finished bool
}

// NewWriter validates cfg and the schema's column names, then writes the
// file header to w.
func NewWriter(w io.Writer, schema types.Schema, cfg Config, opts ...Option) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid writer config")
	}
	if err := encoding.CheckColumns(schema); err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}

	fw := &Writer{
		sink:    NewOffsetWriter(w),
		schema:  schema,
		cfg:     cfg,
		logger:  log.NewNopLogger(),
		factory: codec.NewPlain,
		codecs:  make([]codec.Config, len(schema.Columns)),
		fileID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(fw)
	}

	for i, col := range schema.Columns {
		compressor, err := cfg.compressor(col.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		fw.codecs[i] = codec.Config{
			Compressor: compressor,
			PageSize:   int(cfg.PageSize),
		}
	}

	if err := encoding.WriteHeader(fw.sink); err != nil {
		return nil, fw.fail(&IOError{Op: "writing header", Err: err})
	}
	fw.metrics.observeBytes(int64(len(encoding.Magic)))
	return fw, nil
}

// WriteRow appends one row. A row rejected with ErrSchemaMismatch is
// discarded and the writer stays usable; any other error is fatal.
func (w *Writer) WriteRow(row types.Row) error {
	if err := w.checkState(); err != nil {
		return err
	}

	if w.current == nil {
		rg, err := NewRowGroupWriter(w.sink, w.schema, w.factory, w.codecs, w.cfg.ConcurrentColumnClose)
		if err != nil {
			return w.fail(err)
		}
		w.current = rg
	}

	if err := w.current.AddRow(row); err != nil {
		if errors.Is(err, ErrSchemaMismatch) {
			return err
		}
		return w.fail(err)
	}
	w.numRows++
	w.metrics.observeRow()

	if w.current.NumRows() >= w.cfg.MaxRowGroupRows || w.current.EstimatedSize() >= int64(w.cfg.MaxRowGroupBytes) {
		return w.flushRowGroup()
	}
	return nil
}

// WriteRows drains src and returns the number of rows written. The context
// is checked between rows; a cancelled write leaves the current row group
// open.
func (w *Writer) WriteRows(ctx context.Context, src RowSource) (int64, error) {
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		row, err := src.Next(ctx)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrap(err, "reading row")
		}

		if err := w.WriteRow(row); err != nil {
			return n, err
		}
		n++
	}
}

// Finish closes the last row group and writes the footer and trailer. The
// writer is consumed whether or not Finish succeeds.
func (w *Writer) Finish() error {
	if err := w.checkState(); err != nil {
		return err
	}

	if w.current != nil && w.current.NumRows() > 0 {
		if err := w.flushRowGroup(); err != nil {
			w.finished = true
			return err
		}
	}
	w.current = nil
	w.finished = true

	kv := make(map[string]string, len(w.cfg.KeyValueMetadata)+1)
	for k, v := range w.cfg.KeyValueMetadata {
		kv[k] = v
	}
	kv[FileIDKey] = w.fileID

	footer, err := encoding.MarshalFooter(&encoding.FileMetadata{
		Version:          w.cfg.FormatVersion,
		Schema:           w.schema,
		NumRows:          w.numRows,
		RowGroups:        w.rowGroups,
		KeyValueMetadata: kv,
		CreatedBy:        w.cfg.CreatedBy,
	})
	if err != nil {
		return w.fail(err)
	}

	start := w.sink.Offset()
	if err := encoding.WriteFooter(w.sink, footer); err != nil {
		return w.fail(&IOError{Op: "writing footer", Err: err})
	}
	w.metrics.observeBytes(w.sink.Offset() - start)
	w.metrics.observeFinish()

	level.Info(w.logger).Log(
		"msg", "finished file",
		"file_id", w.fileID,
		"rows", w.numRows,
		"row_groups", len(w.rowGroups),
		"bytes", w.sink.Offset(),
	)
	return nil
}

// NumRows is the number of rows accepted so far.
func (w *Writer) NumRows() int64 { return w.numRows }

// RowGroups returns the metadata of the row groups written so far.
func (w *Writer) RowGroups() []encoding.RowGroupMetadata { return w.rowGroups }

// BytesWritten is the current size of the output.
func (w *Writer) BytesWritten() int64 { return w.sink.Offset() }

func (w *Writer) FileID() string { return w.fileID }

func (w *Writer) flushRowGroup() error {
	rg := w.current
	w.current = nil

	start := w.sink.Offset()
	md, err := rg.Close()
	if err != nil {
		return w.fail(err)
	}
	w.rowGroups = append(w.rowGroups, md)

	size := w.sink.Offset() - start
	w.metrics.observeBytes(size)
	w.metrics.observeRowGroup(size)
	level.Debug(w.logger).Log(
		"msg", "flushed row group",
		"ordinal", len(w.rowGroups)-1,
		"rows", md.NumRows,
		"offset", start,
		"bytes", size,
	)
	return nil
}

func (w *Writer) checkState() error {
	switch {
	case w.err != nil:
		return errors.Wrapf(ErrInvalidState, "writer failed earlier: %v", w.err)
	case w.finished:
		return errors.Wrap(ErrInvalidState, "writer is finished")
	default:
		return nil
	}
}

// fail poisons the writer; the sink contents are invalid from here on.
func (w *Writer) fail(err error) error {
	w.err = err
	w.current = nil
	w.metrics.observeFailure()
	level.Error(w.logger).Log("msg", "write failed", "file_id", w.fileID, "err", err)
	return err
}
