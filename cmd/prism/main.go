package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const ParquetExtension = ".parquet"

var logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

func main() {
	app := kingpin.New("prism", "Convert row-oriented data into Parquet files.")
	app.HelpFlag.Short('h')

	logLevel := app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("info").Enum("debug", "info", "warn", "error")
	app.PreAction(func(_ *kingpin.ParseContext) error {
		logger = level.NewFilter(logger, levelOption(*logLevel))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		return nil
	})

	addConvertCommand(app)
	addSchemaCommand(app)
	addInspectCommand(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// ensureParquetExtension ensures the file has the .parquet extension
func ensureParquetExtension(filename string) string {
	if !strings.HasSuffix(strings.ToLower(filename), ParquetExtension) {
		return filename + ParquetExtension
	}
	return filename
}

// defaultOutput derives the output path from the input path.
func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ParquetExtension
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r, nil
}

func exitWithErr(err error) {
	level.Error(logger).Log("msg", "command failed", "err", err)
	os.Exit(1)
}
