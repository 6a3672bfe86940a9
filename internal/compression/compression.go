package compression

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go/format"
)

var (
	ErrCompressorNotFound = errors.New("compressor not found")
	compressors           = make(map[string]Compressor)
	compressorsMu         sync.RWMutex
)

// Compressor compresses whole page bodies. Implementations must be safe for
// concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
	// Codec is the identifier recorded in column chunk metadata.
	Codec() format.CompressionCodec
}

func RegisterCompressor(name string, c Compressor) {
	compressorsMu.Lock()
	defer compressorsMu.Unlock()
	compressors[strings.ToLower(name)] = c
}

func GetCompressor(name string) (Compressor, error) {
	compressorsMu.RLock()
	defer compressorsMu.RUnlock()

	if c, exists := compressors[strings.ToLower(name)]; exists {
		return c, nil
	}
	return nil, ErrCompressorNotFound
}

// Names lists the registered compressors.
func Names() []string {
	compressorsMu.RLock()
	defer compressorsMu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Uncompressed struct{}

func (Uncompressed) Compress(data []byte) ([]byte, error)   { return data, nil }
func (Uncompressed) Decompress(data []byte) ([]byte, error) { return data, nil }
func (Uncompressed) Name() string                           { return "uncompressed" }
func (Uncompressed) Codec() format.CompressionCodec         { return format.Uncompressed }

func init() {
	RegisterCompressor("uncompressed", Uncompressed{})
	RegisterCompressor("none", Uncompressed{})
}
