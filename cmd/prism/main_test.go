package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/ivan-cunha/prism-parquet/internal/storage"
)

func TestEnsureParquetExtension(t *testing.T) {
	require.Equal(t, "out.parquet", ensureParquetExtension("out"))
	require.Equal(t, "out.PARQUET", ensureParquetExtension("out.PARQUET"))
	require.Equal(t, "data/people.parquet", defaultOutput("data/people.csv"))
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', ";": ';', `\t`: '\t', "tab": '\t', "|": '|'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := parseDelimiter(",,")
	require.Error(t, err)
	_, err = parseDelimiter("")
	require.Error(t, err)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(input, []byte("name,age\na,1\nb,2\nc,\n"), 0o600))

	in, err := os.Open(input)
	require.NoError(t, err)
	defer in.Close()

	cmd := &convertCommand{input: input, rowGroupRows: 2}
	cfg, err := cmd.config()
	require.NoError(t, err)

	fs, err := cmd.loadSchema(in, ',')
	require.NoError(t, err)
	sch := fs.ToSchema()

	output := filepath.Join(dir, "people.parquet")
	rows, rowGroups, size, err := convert(context.Background(), in, output, sch, cfg, ',')
	require.NoError(t, err)
	require.Equal(t, int64(3), rows)
	require.Equal(t, 2, rowGroups)

	fi, err := os.Stat(output)
	require.NoError(t, err)
	require.Equal(t, fi.Size(), size)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	pf, err := parquet.OpenFile(f, fi.Size(), parquet.SkipPageIndex(true), parquet.SkipBloomFilters(true))
	require.NoError(t, err)
	require.Equal(t, int64(3), pf.NumRows())

	_, ok := pf.Lookup(storage.FileIDKey)
	require.True(t, ok)
	require.NoError(t, printFile(output))
}

func TestCheckColumnCompression(t *testing.T) {
	dir := t.TempDir()
	schemaFile := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaFile, []byte("columns:\n  - {name: payload, type: byte_array}\n"), 0o600))

	cmd := &convertCommand{schemaFile: schemaFile}
	fs, err := cmd.loadSchema(nil, ',')
	require.NoError(t, err)

	require.NoError(t, checkColumnCompression(fs, map[string]string{"payload": "zstd"}))
	require.Error(t, checkColumnCompression(fs, map[string]string{"payloda": "zstd"}))
}
