package compression

import (
	"github.com/golang/snappy"
	"github.com/parquet-go/parquet-go/format"
)

// SnappyCompressor uses the raw snappy block format; the framed stream
// format is not valid inside a page.
type SnappyCompressor struct{}

func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (c *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (c *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func (c *SnappyCompressor) Name() string {
	return "snappy"
}

func (c *SnappyCompressor) Codec() format.CompressionCodec {
	return format.Snappy
}

// Register snappy as default compressor
func init() {
	RegisterCompressor("snappy", NewSnappyCompressor())
}
