package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"

	"github.com/ivan-cunha/prism-parquet/internal/schema"
	"github.com/ivan-cunha/prism-parquet/internal/storage"
	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

type convertCommand struct {
	input         string
	output        string
	schemaFile    string
	configFile    string
	compression   string
	rowGroupRows  int64
	delimiter     string
	concurrent    bool
	formatVersion int
}

func addConvertCommand(app *kingpin.Application) {
	cmd := &convertCommand{}

	c := app.Command("convert", "Convert a CSV file with a header line into a Parquet file.").Action(cmd.run)
	c.Flag("input", "Input CSV file.").Short('i').Required().ExistingFileVar(&cmd.input)
	c.Flag("output", "Output file. Defaults to the input name with a .parquet extension.").Short('o').StringVar(&cmd.output)
	c.Flag("schema", "YAML schema definition. The schema is inferred from the input when omitted.").ExistingFileVar(&cmd.schemaFile)
	c.Flag("config.file", "YAML writer configuration.").ExistingFileVar(&cmd.configFile)
	c.Flag("compression", "Page compression, overrides the configuration file.").StringVar(&cmd.compression)
	c.Flag("row-group-rows", "Maximum rows per row group, overrides the configuration file.").Int64Var(&cmd.rowGroupRows)
	c.Flag("format-version", "Writer version recorded in the footer, overrides the configuration file.").IntVar(&cmd.formatVersion)
	c.Flag("concurrent-column-close", "Finalize the columns of a row group in parallel.").BoolVar(&cmd.concurrent)
	c.Flag("delimiter", "Field delimiter.").Default(",").StringVar(&cmd.delimiter)
}

func (cmd *convertCommand) config() (storage.Config, error) {
	cfg := storage.DefaultConfig()
	if cmd.configFile != "" {
		loaded, err := storage.LoadConfig(cmd.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if cmd.compression != "" {
		cfg.Compression = cmd.compression
	}
	if cmd.rowGroupRows > 0 {
		cfg.MaxRowGroupRows = cmd.rowGroupRows
	}
	if cmd.formatVersion > 0 {
		cfg.FormatVersion = cmd.formatVersion
	}
	if cmd.concurrent {
		cfg.ConcurrentColumnClose = true
	}
	return cfg, cfg.Validate()
}

func (cmd *convertCommand) run(_ *kingpin.ParseContext) error {
	cfg, err := cmd.config()
	if err != nil {
		return err
	}
	delimiter, err := parseDelimiter(cmd.delimiter)
	if err != nil {
		return err
	}

	output := cmd.output
	if output == "" {
		output = defaultOutput(cmd.input)
	}
	output = ensureParquetExtension(output)

	in, err := os.Open(cmd.input)
	if err != nil {
		return fmt.Errorf("error opening CSV file: %w", err)
	}
	defer in.Close()

	fs, err := cmd.loadSchema(in, delimiter)
	if err != nil {
		return err
	}
	if err := checkColumnCompression(fs, cfg.ColumnCompression); err != nil {
		return err
	}
	sch := fs.ToSchema()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rows, rowGroups, size, err := convert(ctx, in, output, sch, cfg, delimiter)
	if err != nil {
		// a partial file is never valid
		_ = os.Remove(output)
		return err
	}

	fmt.Printf("Successfully converted %s to %s: %d rows, %d row groups, %s\n",
		cmd.input, output, rows, rowGroups, humanize.Bytes(uint64(size)))
	return nil
}

func (cmd *convertCommand) loadSchema(in *os.File, delimiter rune) (*schema.FileSchema, error) {
	if cmd.schemaFile != "" {
		return schema.Load(cmd.schemaFile)
	}

	sch, err := storage.InferSchema(in, delimiter)
	if err != nil {
		return nil, fmt.Errorf("error inferring schema: %w", err)
	}
	for _, col := range sch.Columns {
		level.Debug(logger).Log("msg", "inferred column", "name", col.Name, "type", schema.TypeName(col), "nullable", col.Nullable)
	}
	return schema.FromSchema(sch)
}

// checkColumnCompression rejects overrides naming columns the schema lacks.
func checkColumnCompression(fs *schema.FileSchema, overrides map[string]string) error {
	for name := range overrides {
		if _, err := fs.GetColumn(name); err != nil {
			return fmt.Errorf("column_compression: %w", err)
		}
	}
	return nil
}

func convert(ctx context.Context, in *os.File, output string, sch types.Schema, cfg storage.Config, delimiter rune) (int64, int, int64, error) {
	out, err := os.Create(output)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("error creating output file: %w", err)
	}
	defer out.Close()

	bw := bufio.NewWriterSize(out, 1<<20)
	w, err := storage.NewWriter(bw, sch, cfg, storage.WithLogger(logger))
	if err != nil {
		return 0, 0, 0, err
	}

	src, err := storage.NewCSVSource(in, sch, delimiter)
	if err != nil {
		return 0, 0, 0, err
	}

	rows, err := w.WriteRows(ctx, src)
	if err != nil {
		return rows, 0, 0, fmt.Errorf("error writing row %d: %w", rows+1, err)
	}
	if err := w.Finish(); err != nil {
		return rows, 0, 0, err
	}
	if err := bw.Flush(); err != nil {
		return rows, 0, 0, fmt.Errorf("error flushing output: %w", err)
	}
	if err := out.Sync(); err != nil {
		return rows, 0, 0, err
	}
	return rows, len(w.RowGroups()), w.BytesWritten(), nil
}
