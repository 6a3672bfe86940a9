package encoding

import (
	"math"
	"sort"

	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/internal/codec"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

var ErrFooterSerialization = errors.New("footer serialization error")

// ColumnChunkMetadata describes one column chunk once it has been placed in
// the file.
type ColumnChunkMetadata struct {
	Column types.Column
	// Offset is the absolute position of the chunk's first byte.
	Offset           int64
	NumRows          int64
	NumValues        int64
	NumPages         int
	UncompressedSize int64
	CompressedSize   int64
	Encodings        []format.Encoding
	Codec            format.CompressionCodec
	Statistics       codec.Statistics
}

type RowGroupMetadata struct {
	NumRows int64
	// TotalByteSize is the sum of the chunks' uncompressed sizes.
	TotalByteSize int64
	Columns       []ColumnChunkMetadata
}

// CompressedSize is the number of bytes the row group occupies in the file.
func (rg *RowGroupMetadata) CompressedSize() int64 {
	var n int64
	for _, c := range rg.Columns {
		n += c.CompressedSize
	}
	return n
}

type FileMetadata struct {
	Version          int
	Schema           types.Schema
	NumRows          int64
	RowGroups        []RowGroupMetadata
	KeyValueMetadata map[string]string
	CreatedBy        string
}

// MarshalFooter serializes the file metadata with the thrift compact
// protocol. Every failure is reported as ErrFooterSerialization.
func MarshalFooter(md *FileMetadata) ([]byte, error) {
	fmd, err := fileMetaData(md)
	if err != nil {
		return nil, err
	}
	footer, err := thrift.Marshal(new(thrift.CompactProtocol), fmd)
	if err != nil {
		return nil, errors.Wrapf(ErrFooterSerialization, "thrift: %v", err)
	}
	return footer, nil
}

func fileMetaData(md *FileMetadata) (*format.FileMetaData, error) {
	if md.Version != 1 && md.Version != 2 {
		return nil, errors.Wrapf(ErrFooterSerialization, "unsupported writer version %d", md.Version)
	}

	schema, err := schemaElements(md.Schema)
	if err != nil {
		return nil, err
	}

	fmd := &format.FileMetaData{
		Version:   int32(md.Version),
		Schema:    schema,
		NumRows:   md.NumRows,
		RowGroups: make([]format.RowGroup, 0, len(md.RowGroups)),
		CreatedBy: md.CreatedBy,
	}

	var rows int64
	for i := range md.RowGroups {
		rg, err := rowGroup(&md.RowGroups[i], i, md.Version, len(md.Schema.Columns))
		if err != nil {
			return nil, err
		}
		rows += rg.NumRows
		fmd.RowGroups = append(fmd.RowGroups, rg)
	}
	if rows != md.NumRows {
		return nil, errors.Wrapf(ErrFooterSerialization, "row groups hold %d rows, file reports %d", rows, md.NumRows)
	}

	if len(md.KeyValueMetadata) > 0 {
		keys := make([]string, 0, len(md.KeyValueMetadata))
		for k := range md.KeyValueMetadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmd.KeyValueMetadata = append(fmd.KeyValueMetadata, format.KeyValue{Key: k, Value: md.KeyValueMetadata[k]})
		}
	}

	if md.Version >= 2 {
		fmd.ColumnOrders = make([]format.ColumnOrder, len(md.Schema.Columns))
		for i := range fmd.ColumnOrders {
			fmd.ColumnOrders[i].TypeOrder = new(format.TypeDefinedOrder)
		}
	}
	return fmd, nil
}

// CheckColumns reports schemas that can never be described by a footer: no
// columns, an empty column name or a repeated one. Column types are checked
// when the footer is built.
func CheckColumns(s types.Schema) error {
	if len(s.Columns) == 0 {
		return errors.Wrap(ErrFooterSerialization, "schema has no columns")
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, col := range s.Columns {
		if col.Name == "" {
			return errors.Wrap(ErrFooterSerialization, "column with empty name")
		}
		if _, dup := seen[col.Name]; dup {
			return errors.Wrapf(ErrFooterSerialization, "duplicate column %s", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

func schemaElements(s types.Schema) ([]format.SchemaElement, error) {
	if err := CheckColumns(s); err != nil {
		return nil, err
	}

	elements := make([]format.SchemaElement, 0, len(s.Columns)+1)
	elements = append(elements, format.SchemaElement{
		Name:        "schema",
		NumChildren: int32(len(s.Columns)),
	})

	for _, col := range s.Columns {
		t, err := physicalType(col)
		if err != nil {
			return nil, err
		}
		repetition := format.Required
		if col.Nullable {
			repetition = format.Optional
		}

		el := format.SchemaElement{
			Type:           &t,
			RepetitionType: &repetition,
			Name:           col.Name,
		}
		switch {
		case col.Type == types.FixedLenByteArrayType:
			if col.TypeLength <= 0 || col.TypeLength > math.MaxInt32 {
				return nil, errors.Wrapf(ErrFooterSerialization, "column %s: invalid type length %d", col.Name, col.TypeLength)
			}
			length := int32(col.TypeLength)
			el.TypeLength = &length
		case col.Type == types.ByteArrayType && col.String:
			utf8 := deprecated.UTF8
			el.ConvertedType = &utf8
			el.LogicalType = &format.LogicalType{UTF8: new(format.StringType)}
		}
		elements = append(elements, el)
	}
	return elements, nil
}

func physicalType(col types.Column) (format.Type, error) {
	switch col.Type {
	case types.BooleanType:
		return format.Boolean, nil
	case types.Int32Type:
		return format.Int32, nil
	case types.Int64Type:
		return format.Int64, nil
	case types.Int96Type:
		return format.Int96, nil
	case types.FloatType:
		return format.Float, nil
	case types.DoubleType:
		return format.Double, nil
	case types.ByteArrayType:
		return format.ByteArray, nil
	case types.FixedLenByteArrayType:
		return format.FixedLenByteArray, nil
	default:
		return 0, errors.Wrapf(ErrFooterSerialization, "column %s: unsupported type %s", col.Name, col.Type)
	}
}

func rowGroup(rg *RowGroupMetadata, ordinal, version, numColumns int) (format.RowGroup, error) {
	if len(rg.Columns) != numColumns {
		return format.RowGroup{}, errors.Wrapf(ErrFooterSerialization,
			"row group %d has %d column chunks, schema has %d", ordinal, len(rg.Columns), numColumns)
	}

	out := format.RowGroup{
		Columns:             make([]format.ColumnChunk, len(rg.Columns)),
		TotalByteSize:       rg.TotalByteSize,
		NumRows:             rg.NumRows,
		TotalCompressedSize: rg.CompressedSize(),
	}
	if len(rg.Columns) > 0 {
		out.FileOffset = rg.Columns[0].Offset
	}
	if ordinal <= math.MaxInt16 {
		out.Ordinal = int16(ordinal)
	}

	for i, c := range rg.Columns {
		t, err := physicalType(c.Column)
		if err != nil {
			return format.RowGroup{}, err
		}
		out.Columns[i] = format.ColumnChunk{
			FileOffset: c.Offset,
			MetaData: format.ColumnMetaData{
				Type:                  t,
				Encoding:              c.Encodings,
				PathInSchema:          []string{c.Column.Name},
				Codec:                 c.Codec,
				NumValues:             c.NumValues,
				TotalUncompressedSize: c.UncompressedSize,
				TotalCompressedSize:   c.CompressedSize,
				DataPageOffset:        c.Offset,
				Statistics:            statistics(c.Column, c.Statistics, version),
			},
		}
	}
	return out, nil
}

// statistics fills the legacy min/max only for types whose legacy signed
// ordering matches the type-defined one.
func statistics(col types.Column, s codec.Statistics, version int) format.Statistics {
	out := format.Statistics{
		NullCount:     s.NullCount,
		DistinctCount: s.DistinctCount,
	}
	if !s.HasMinMax {
		return out
	}
	if version >= 2 {
		out.MinValue, out.MaxValue = s.Min, s.Max
	}
	switch col.Type {
	case types.BooleanType, types.Int32Type, types.Int64Type, types.FloatType, types.DoubleType:
		out.Min, out.Max = s.Min, s.Max
	}
	return out
}
