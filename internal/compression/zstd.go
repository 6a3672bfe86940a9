package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go/format"
)

// ZstdCompressor shares one encoder and one decoder; EncodeAll and DecodeAll
// are safe for concurrent use.
type ZstdCompressor struct {
	once    sync.Once
	err     error
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdCompressor() *ZstdCompressor {
	return &ZstdCompressor{}
}

func (c *ZstdCompressor) init() error {
	c.once.Do(func() {
		c.encoder, c.err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if c.err != nil {
			return
		}
		c.decoder, c.err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return c.err
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCompressor) Name() string {
	return "zstd"
}

func (c *ZstdCompressor) Codec() format.CompressionCodec {
	return format.Zstd
}

func init() {
	RegisterCompressor("zstd", NewZstdCompressor())
}
