package codec

import (
	"bytes"
	"encoding/binary"

	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/encoding/plain"
	"github.com/parquet-go/parquet-go/encoding/rle"
	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/compression"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// plainCodec writes DATA_PAGE (v1) pages with PLAIN values and RLE
// definition levels. Repetition levels are never written since schemas are
// flat.
type plainCodec struct {
	col        types.Column
	pageSize   int
	compressor compression.Compressor
	protocol   thrift.CompactProtocol

	// current page
	levels    []uint8
	values    []byte
	numValues int
	numBools  int

	scratch []byte
	stats   *statsBuilder
	result  ChunkResult
	closed  bool
}

// NewPlain is the default Factory.
func NewPlain(col types.Column, cfg Config) (Codec, error) {
	if !col.Type.Valid() {
		return nil, &EncodingError{Column: col.Name, Err: errors.Errorf("unsupported type %s", col.Type)}
	}
	if col.Type == types.FixedLenByteArrayType && col.TypeLength <= 0 {
		return nil, &EncodingError{Column: col.Name, Err: errors.Errorf("invalid type length %d", col.TypeLength)}
	}

	c := &plainCodec{
		col:        col,
		pageSize:   cfg.PageSize,
		compressor: cfg.Compressor,
		stats:      newStatsBuilder(),
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.compressor == nil {
		c.compressor = compression.Uncompressed{}
	}

	c.result.Codec = c.compressor.Codec()
	c.result.Encodings = []format.Encoding{format.Plain}
	if col.Nullable {
		c.result.Encodings = append(c.result.Encodings, format.RLE)
	}
	return c, nil
}

func (c *plainCodec) WriteValues(dst *bytes.Buffer, values []types.Value, validity []bool) error {
	if c.closed {
		return &EncodingError{Column: c.col.Name, Err: errors.New("codec is closed")}
	}
	if validity != nil && len(validity) != len(values) {
		return &EncodingError{
			Column: c.col.Name,
			Err:    errors.Errorf("validity length %d does not match %d values", len(validity), len(values)),
		}
	}

	// Reject the whole batch before anything is buffered.
	for i, v := range values {
		present := v != nil
		if validity != nil {
			if validity[i] && v == nil {
				return &EncodingError{Column: c.col.Name, Err: errors.Errorf("value %d is marked present but is nil", i)}
			}
			present = validity[i]
		}
		if !present {
			if !c.col.Nullable {
				return &EncodingError{Column: c.col.Name, Err: errors.New("null value in required column")}
			}
			continue
		}
		if err := types.CheckValue(c.col, v); err != nil {
			return &EncodingError{Column: c.col.Name, Err: err}
		}
	}

	for i, v := range values {
		present := v != nil
		if validity != nil {
			present = validity[i]
		}
		c.append(v, present)

		if len(c.values)+len(c.levels) >= c.pageSize {
			if err := c.flushPage(dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *plainCodec) append(v types.Value, present bool) {
	c.numValues++
	if c.col.Nullable {
		if !present {
			c.levels = append(c.levels, 0)
			c.stats.observeNull()
			return
		}
		c.levels = append(c.levels, 1)
	}

	if b, ok := v.(types.Bool); ok {
		c.values = plain.AppendBoolean(c.values, c.numBools, bool(b))
		c.numBools++
		c.scratch = appendPlain(c.scratch[:0], v)
		c.stats.observe(v, c.scratch)
		return
	}

	n := len(c.values)
	c.values = appendPlain(c.values, v)
	if _, variable := v.(types.ByteArray); variable {
		n += 4
	}
	c.stats.observe(v, c.values[n:])
}

func (c *plainCodec) EstimatedSize() int {
	return int(c.result.CompressedSize) + len(c.values) + len(c.levels)
}

func (c *plainCodec) Close(dst *bytes.Buffer) (ChunkResult, error) {
	if c.closed {
		return ChunkResult{}, &EncodingError{Column: c.col.Name, Err: errors.New("codec is closed")}
	}
	c.closed = true

	if err := c.flushPage(dst); err != nil {
		return ChunkResult{}, err
	}

	c.result.NumRows = c.result.NumValues
	c.result.Statistics = c.stats.build()
	c.levels, c.values, c.scratch = nil, nil, nil
	return c.result, nil
}

func (c *plainCodec) flushPage(dst *bytes.Buffer) error {
	if c.numValues == 0 {
		return nil
	}

	body := c.scratch[:0]
	if c.col.Nullable {
		levels, err := (&rle.Encoding{BitWidth: 1}).EncodeLevels(nil, c.levels)
		if err != nil {
			return &EncodingError{Column: c.col.Name, Err: errors.Wrap(err, "encoding definition levels")}
		}
		body = binary.LittleEndian.AppendUint32(body, uint32(len(levels)))
		body = append(body, levels...)
	}
	body = append(body, c.values...)

	compressed, err := c.compressor.Compress(body)
	if err != nil {
		return &EncodingError{Column: c.col.Name, Err: errors.Wrapf(err, "%s compression", c.compressor.Name())}
	}

	header := format.PageHeader{
		Type:                 format.DataPage,
		UncompressedPageSize: int32(len(body)),
		CompressedPageSize:   int32(len(compressed)),
		DataPageHeader: &format.DataPageHeader{
			NumValues:               int32(c.numValues),
			Encoding:                format.Plain,
			DefinitionLevelEncoding: format.RLE,
			RepetitionLevelEncoding: format.RLE,
		},
	}
	headerBytes, err := thrift.Marshal(&c.protocol, &header)
	if err != nil {
		return &EncodingError{Column: c.col.Name, Err: errors.Wrap(err, "marshalling page header")}
	}

	dst.Write(headerBytes)
	dst.Write(compressed)

	size := int64(len(headerBytes))
	c.result.BytesWritten += size + int64(len(compressed))
	c.result.UncompressedSize += size + int64(len(body))
	c.result.CompressedSize += size + int64(len(compressed))
	c.result.NumValues += int64(c.numValues)
	c.result.NumPages++

	c.scratch = body[:0]
	c.levels = c.levels[:0]
	c.values = c.values[:0]
	c.numValues = 0
	c.numBools = 0
	return nil
}

// appendPlain appends the PLAIN encoding of v. Byte arrays carry their
// 4-byte length prefix; booleans take a whole byte.
func appendPlain(dst []byte, v types.Value) []byte {
	switch x := v.(type) {
	case types.Bool:
		if x {
			return append(dst, 1)
		}
		return append(dst, 0)
	case types.Int32:
		return plain.AppendInt32(dst, int32(x))
	case types.Int64:
		return plain.AppendInt64(dst, int64(x))
	case types.Int96:
		return plain.AppendInt96(dst, deprecated.Int96{
			binary.LittleEndian.Uint32(x[0:4]),
			binary.LittleEndian.Uint32(x[4:8]),
			binary.LittleEndian.Uint32(x[8:12]),
		})
	case types.Float:
		return plain.AppendFloat(dst, float32(x))
	case types.Double:
		return plain.AppendDouble(dst, float64(x))
	case types.ByteArray:
		return plain.AppendByteArray(dst, x)
	case types.FixedLenByteArray:
		return append(dst, x...)
	default:
		return dst
	}
}
