package storage

import (
	stderrors "errors"
	"flag"
	"math"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ivan-cunha/prism-parquet/internal/compression"
)

const (
	DefaultMaxRowGroupRows = 1 << 20
	DefaultCreatedBy       = "prism-parquet"
)

// Config controls how a Writer frames the file. Compression is delegated to
// the column codecs.
type Config struct {
	// FormatVersion selects the footer dialect, 1 or 2.
	FormatVersion int    `yaml:"format_version"`
	CreatedBy     string `yaml:"created_by"`

	Compression string `yaml:"compression"`
	// ColumnCompression overrides Compression for individual columns.
	ColumnCompression map[string]string `yaml:"column_compression"`

	// A row group is closed as soon as it reaches either limit.
	MaxRowGroupRows  int64             `yaml:"max_row_group_rows"`
	MaxRowGroupBytes datasize.ByteSize `yaml:"max_row_group_bytes"`
	PageSize         datasize.ByteSize `yaml:"page_size"`

	// ConcurrentColumnClose finalizes the columns of a row group in
	// parallel. Chunks are still written in schema order.
	ConcurrentColumnClose bool `yaml:"concurrent_column_close"`

	KeyValueMetadata map[string]string `yaml:"key_value_metadata"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", f)
}

// RegisterFlagsWithPrefix registers flags with the given prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.IntVar(&cfg.FormatVersion, prefix+"format-version", 2, "Writer version recorded in the footer (1 or 2).")
	f.StringVar(&cfg.CreatedBy, prefix+"created-by", DefaultCreatedBy, "Application identifier recorded in the footer.")
	f.StringVar(&cfg.Compression, prefix+"compression", "snappy", "Page compression: uncompressed, snappy, gzip or zstd.")
	f.Int64Var(&cfg.MaxRowGroupRows, prefix+"max-row-group-rows", DefaultMaxRowGroupRows, "Maximum number of rows per row group.")
	f.TextVar(&cfg.MaxRowGroupBytes, prefix+"max-row-group-bytes", 128*datasize.MB, "Approximate maximum encoded size of a row group.")
	f.TextVar(&cfg.PageSize, prefix+"page-size", 1*datasize.MB, "Target size of a data page before compression.")
	f.BoolVar(&cfg.ConcurrentColumnClose, prefix+"concurrent-column-close", false, "Finalize the columns of a row group in parallel.")
}

// DefaultConfig returns the flag defaults.
func DefaultConfig() Config {
	var cfg Config
	cfg.RegisterFlags(flag.NewFlagSet("defaults", flag.ContinueOnError))
	return cfg
}

// LoadConfig overlays a YAML file on the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %s", path)
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	var errs []error

	if cfg.FormatVersion != 1 && cfg.FormatVersion != 2 {
		errs = append(errs, errors.Errorf("format_version must be 1 or 2, got %d", cfg.FormatVersion))
	}
	if _, err := compression.GetCompressor(cfg.Compression); err != nil {
		errs = append(errs, errors.Wrapf(err, "compression %q", cfg.Compression))
	}
	for column, name := range cfg.ColumnCompression {
		if _, err := compression.GetCompressor(name); err != nil {
			errs = append(errs, errors.Wrapf(err, "column_compression for %s %q", column, name))
		}
	}
	if cfg.MaxRowGroupRows <= 0 {
		errs = append(errs, errors.New("max_row_group_rows must be greater than 0"))
	}
	if cfg.MaxRowGroupBytes == 0 {
		errs = append(errs, errors.New("max_row_group_bytes must be greater than 0"))
	}
	if cfg.PageSize == 0 {
		errs = append(errs, errors.New("page_size must be greater than 0"))
	} else if cfg.PageSize > cfg.MaxRowGroupBytes {
		errs = append(errs, errors.New("page_size must not exceed max_row_group_bytes"))
	}
	// Page headers store sizes as int32.
	if cfg.PageSize > math.MaxInt32 {
		errs = append(errs, errors.Errorf("page_size must not exceed %d bytes", math.MaxInt32))
	}

	return stderrors.Join(errs...)
}

func (cfg *Config) compressor(column string) (compression.Compressor, error) {
	name := cfg.Compression
	if override, ok := cfg.ColumnCompression[column]; ok {
		name = override
	}
	return compression.GetCompressor(name)
}
