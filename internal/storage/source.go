package storage

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// RowSource yields rows one at a time and returns io.EOF once exhausted.
// Sources are single pass.
type RowSource interface {
	Next(ctx context.Context) (types.Row, error)
}

// SliceSource serves rows held in memory.
type SliceSource struct {
	rows []types.Row
	pos  int
}

func NewSliceSource(rows []types.Row) *SliceSource {
	return &SliceSource{rows: rows}
}

func (s *SliceSource) Next(_ context.Context) (types.Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// ConversionError reports a CSV field that cannot be converted to its
// column's type. It matches ErrSchemaMismatch.
type ConversionError struct {
	Row         int
	ColumnIndex int
	ColumnName  string
	Value       string
	TargetType  types.PhysicalType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error at row %d, column '%s' (index %d): value '%s' cannot be converted to %s",
		e.Row, e.ColumnName, e.ColumnIndex, e.Value, e.TargetType)
}

func (e *ConversionError) Is(target error) bool { return target == ErrSchemaMismatch }

// CSVSource converts the records of a CSV stream with a header line into
// rows of the given schema, matching fields to columns by position.
type CSVSource struct {
	reader *csv.Reader
	schema types.Schema
	header []string
	line   int
}

func NewCSVSource(r io.Reader, schema types.Schema, delimiter rune) (*CSVSource, error) {
	reader := newCSVReader(r, delimiter)

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "error reading header")
	}
	if len(header) != len(schema.Columns) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "header has %d fields, schema has %d columns", len(header), len(schema.Columns))
	}

	return &CSVSource{
		reader: reader,
		schema: schema,
		header: append([]string(nil), header...),
		line:   1,
	}, nil
}

func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	return reader
}

func (s *CSVSource) Header() []string { return s.header }

func (s *CSVSource) Next(ctx context.Context) (types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading row")
	}
	s.line++

	if len(record) != len(s.schema.Columns) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "line %d has %d fields, schema has %d columns", s.line, len(record), len(s.schema.Columns))
	}

	row := make(types.Row, len(record))
	for i, field := range record {
		v, err := parseValue(s.schema.Columns[i], field)
		if err != nil {
			return nil, &ConversionError{
				Row:         s.line,
				ColumnIndex: i,
				ColumnName:  s.schema.Columns[i].Name,
				Value:       field,
				TargetType:  s.schema.Columns[i].Type,
			}
		}
		row[i] = v
	}
	return row, nil
}

// parseValue converts one CSV field. Null tokens become nil in nullable
// columns; byte string columns keep them verbatim otherwise.
func parseValue(col types.Column, s string) (types.Value, error) {
	if isNull(s) {
		if col.Nullable {
			return nil, nil
		}
		if col.Type != types.ByteArrayType {
			return nil, fmt.Errorf("null value not allowed for non-nullable column %s", col.Name)
		}
	}

	switch col.Type {
	case types.BooleanType:
		v, err := parseBoolean(s)
		return types.Bool(v), err
	case types.Int32Type:
		v, err := parseInt32(s)
		return types.Int32(v), err
	case types.Int64Type:
		v, err := parseInt64(s)
		return types.Int64(v), err
	case types.Int96Type:
		t, err := parseTimestamp(s)
		if err != nil {
			return nil, err
		}
		return timestampToInt96(t), nil
	case types.FloatType:
		v, err := parseFloat32(s)
		return types.Float(v), err
	case types.DoubleType:
		v, err := parseFloat64(s)
		return types.Double(v), err
	case types.ByteArrayType:
		return types.ByteArray(s), nil
	case types.FixedLenByteArrayType:
		if len(s) != col.TypeLength {
			return nil, fmt.Errorf("expected %d bytes, got %d", col.TypeLength, len(s))
		}
		return types.FixedLenByteArray(s), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", col.Type)
	}
}

func parseInt32(s string) (int32, error) {
	i64, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid int32 value: %s", s)
	}
	return int32(i64), nil
}

func parseInt64(s string) (int64, error) {
	i64, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid int64 value: %s", s)
	}
	return i64, nil
}

func parseFloat32(s string) (float32, error) {
	f64, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid float32 value: %s", s)
	}
	return float32(f64), nil
}

func parseFloat64(s string) (float64, error) {
	f64, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float64 value: %s", s)
	}
	return f64, nil
}

func parseBoolean(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC822,
		time.RFC1123,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	// Unix seconds
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(i, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("invalid timestamp format: %s", s)
}

const (
	julianDayOfEpoch = 2440588
	nanosPerDay      = int64(24 * time.Hour)
)

// timestampToInt96 uses the legacy INT96 timestamp layout: nanoseconds
// within the day followed by the Julian day number, both little-endian.
func timestampToInt96(t time.Time) types.Int96 {
	nanos := t.UTC().UnixNano()
	days := nanos / nanosPerDay
	rem := nanos % nanosPerDay
	if rem < 0 {
		days--
		rem += nanosPerDay
	}

	var v types.Int96
	binary.LittleEndian.PutUint64(v[:8], uint64(rem))
	binary.LittleEndian.PutUint32(v[8:], uint32(days+julianDayOfEpoch))
	return v
}

func isNull(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "" || v == "null" || v == "na" || v == "n/a"
}
