package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/parquet-go/parquet-go/encoding/plain"
	"github.com/parquet-go/parquet-go/encoding/thrift"
	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/require"

	"github.com/ivan-cunha/prism-parquet/internal/compression"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

func TestNewPlainRejectsInvalidColumns(t *testing.T) {
	_, err := NewPlain(types.Column{Name: "x", Type: types.PhysicalType(42)}, Config{})
	require.ErrorIs(t, err, ErrEncoding)

	_, err = NewPlain(types.Column{Name: "x", Type: types.FixedLenByteArrayType}, Config{})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestWriteValuesRejectsBadBatches(t *testing.T) {
	col := types.Column{Name: "age", Type: types.Int64Type}

	tests := []struct {
		name     string
		values   []types.Value
		validity []bool
	}{
		{"type mismatch", []types.Value{types.Int64(1), types.Int32(2)}, nil},
		{"validity length", []types.Value{types.Int64(1)}, []bool{true, true}},
		{"null in required column", []types.Value{nil}, nil},
		{"present but nil", []types.Value{nil}, []bool{true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewPlain(col, Config{})
			require.NoError(t, err)

			var buf bytes.Buffer
			err = c.WriteValues(&buf, tt.values, tt.validity)
			require.ErrorIs(t, err, ErrEncoding)

			var encErr *EncodingError
			require.ErrorAs(t, err, &encErr)
			require.Equal(t, "age", encErr.Column)

			// nothing from the rejected batch was buffered
			require.Zero(t, c.EstimatedSize())
			res, err := c.Close(&buf)
			require.NoError(t, err)
			require.Zero(t, res.NumRows)
			require.Zero(t, buf.Len())
		})
	}
}

func TestPagesAreCutAtPageSize(t *testing.T) {
	c, err := NewPlain(types.Column{Name: "n", Type: types.Int64Type}, Config{PageSize: 16})
	require.NoError(t, err)

	var buf bytes.Buffer
	for i := 0; i < 10; i++ {
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.Int64(i)}, nil))
	}

	res, err := c.Close(&buf)
	require.NoError(t, err)
	require.Equal(t, 5, res.NumPages)
	require.Equal(t, int64(10), res.NumRows)
	require.Equal(t, int64(10), res.NumValues)
	require.Equal(t, int64(buf.Len()), res.BytesWritten)
	require.Equal(t, res.CompressedSize, res.UncompressedSize)
	require.Equal(t, format.Uncompressed, res.Codec)
	require.Equal(t, []format.Encoding{format.Plain}, res.Encodings)
}

func TestPageHeader(t *testing.T) {
	c, err := NewPlain(types.Column{Name: "s", Type: types.ByteArrayType, Nullable: true}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.WriteValues(&buf,
		[]types.Value{types.String("a"), nil, types.String("bc")},
		[]bool{true, false, true},
	))
	res, err := c.Close(&buf)
	require.NoError(t, err)
	require.Equal(t, []format.Encoding{format.Plain, format.RLE}, res.Encodings)

	var header format.PageHeader
	decoder := thrift.NewDecoder(new(thrift.CompactProtocol).NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, decoder.Decode(&header))
	require.Equal(t, format.DataPage, header.Type)
	require.NotNil(t, header.DataPageHeader)
	require.Equal(t, int32(3), header.DataPageHeader.NumValues)
	require.Equal(t, format.Plain, header.DataPageHeader.Encoding)

	// page body ends with the two PLAIN byte arrays
	values := plain.AppendByteArray(plain.AppendByteArray(nil, []byte("a")), []byte("bc"))
	require.True(t, bytes.HasSuffix(buf.Bytes(), values))
}

func TestStatistics(t *testing.T) {
	t.Run("int64", func(t *testing.T) {
		c, err := NewPlain(types.Column{Name: "n", Type: types.Int64Type, Nullable: true}, Config{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.Int64(5), nil, types.Int64(-3), types.Int64(5)}, nil))
		res, err := c.Close(&buf)
		require.NoError(t, err)

		stats := res.Statistics
		require.Equal(t, int64(1), stats.NullCount)
		require.Equal(t, int64(2), stats.DistinctCount)
		require.True(t, stats.HasMinMax)
		require.Equal(t, plain.AppendInt64(nil, -3), stats.Min)
		require.Equal(t, plain.AppendInt64(nil, 5), stats.Max)
	})

	t.Run("strings", func(t *testing.T) {
		c, err := NewPlain(types.Column{Name: "s", Type: types.ByteArrayType, String: true}, Config{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.String("b"), types.String("a"), types.String("c")}, nil))
		res, err := c.Close(&buf)
		require.NoError(t, err)
		require.Equal(t, []byte("a"), res.Statistics.Min)
		require.Equal(t, []byte("c"), res.Statistics.Max)
		require.Equal(t, int64(3), res.Statistics.DistinctCount)
	})

	t.Run("nan is ignored", func(t *testing.T) {
		c, err := NewPlain(types.Column{Name: "d", Type: types.DoubleType}, Config{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.Double(math.NaN()), types.Double(1.5), types.Double(-2)}, nil))
		res, err := c.Close(&buf)
		require.NoError(t, err)
		require.Equal(t, plain.AppendDouble(nil, -2), res.Statistics.Min)
		require.Equal(t, plain.AppendDouble(nil, 1.5), res.Statistics.Max)
	})

	t.Run("signed zero bounds", func(t *testing.T) {
		negZero := math.Copysign(0, -1)
		for _, values := range [][]types.Value{
			{types.Float(negZero), types.Float(negZero)},
			{types.Float(0)},
		} {
			c, err := NewPlain(types.Column{Name: "f", Type: types.FloatType}, Config{})
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, c.WriteValues(&buf, values, nil))
			res, err := c.Close(&buf)
			require.NoError(t, err)
			require.Equal(t, plain.AppendFloat(nil, float32(negZero)), res.Statistics.Min)
			require.Equal(t, plain.AppendFloat(nil, 0), res.Statistics.Max)
		}

		c, err := NewPlain(types.Column{Name: "d", Type: types.DoubleType}, Config{})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.Double(negZero), types.Double(-1)}, nil))
		res, err := c.Close(&buf)
		require.NoError(t, err)
		require.Equal(t, plain.AppendDouble(nil, -1), res.Statistics.Min)
		require.Equal(t, plain.AppendDouble(nil, 0), res.Statistics.Max)
	})

	t.Run("all null", func(t *testing.T) {
		c, err := NewPlain(types.Column{Name: "b", Type: types.BooleanType, Nullable: true}, Config{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, c.WriteValues(&buf, []types.Value{nil, nil}, nil))
		res, err := c.Close(&buf)
		require.NoError(t, err)
		require.False(t, res.Statistics.HasMinMax)
		require.Equal(t, int64(2), res.Statistics.NullCount)
		require.Equal(t, int64(2), res.NumRows)
	})
}

func TestCompressedChunk(t *testing.T) {
	snappy, err := compression.GetCompressor("snappy")
	require.NoError(t, err)

	c, err := NewPlain(types.Column{Name: "s", Type: types.ByteArrayType}, Config{Compressor: snappy})
	require.NoError(t, err)

	var buf bytes.Buffer
	for i := 0; i < 1000; i++ {
		require.NoError(t, c.WriteValues(&buf, []types.Value{types.String("repeated value")}, nil))
	}
	require.Zero(t, buf.Len())
	require.Positive(t, c.EstimatedSize())

	res, err := c.Close(&buf)
	require.NoError(t, err)
	require.Equal(t, format.Snappy, res.Codec)
	require.Less(t, res.CompressedSize, res.UncompressedSize)
	require.Equal(t, int64(buf.Len()), res.CompressedSize)
	require.Equal(t, int64(1), res.Statistics.DistinctCount)

	_, err = c.Close(&buf)
	require.ErrorIs(t, err, ErrEncoding)
}
