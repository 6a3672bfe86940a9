package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go/format"
)

type GzipCompressor struct {
	level int
}

func NewGzipCompressor(level int) *GzipCompressor {
	return &GzipCompressor{level: level}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCompressor) Name() string {
	return "gzip"
}

func (c *GzipCompressor) Codec() format.CompressionCodec {
	return format.Gzip
}

func init() {
	RegisterCompressor("gzip", NewGzipCompressor(gzip.DefaultCompression))
}
