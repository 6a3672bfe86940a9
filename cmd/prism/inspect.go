package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/parquet-go/parquet-go"
)

// inspectCommand prints the footer of Parquet files.
type inspectCommand struct {
	files *[]string
}

func addInspectCommand(app *kingpin.Application) {
	cmd := &inspectCommand{}
	c := app.Command("inspect", "Print the footer of Parquet files.").Action(cmd.run)
	cmd.files = c.Arg("file", "The files to print.").Required().ExistingFiles()
}

func (cmd *inspectCommand) run(_ *kingpin.ParseContext) error {
	for _, name := range *cmd.files {
		if err := printFile(name); err != nil {
			exitWithErr(fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

func printFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	pf, err := parquet.OpenFile(f, fi.Size(),
		parquet.SkipBloomFilters(true),
		parquet.SkipPageIndex(true),
	)
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	md := pf.Metadata()
	fmt.Printf("File: %s\n", filepath.Base(name))
	fmt.Printf("\tsize: %v, version: %d, created by: %s\n", humanize.Bytes(uint64(fi.Size())), md.Version, md.CreatedBy)
	fmt.Printf("\trows: %d, row groups: %d\n", md.NumRows, len(md.RowGroups))
	for _, kv := range md.KeyValueMetadata {
		fmt.Printf("\t%s: %s\n", kv.Key, kv.Value)
	}

	for i, rg := range md.RowGroups {
		fmt.Printf("\tRow group %d: offset %d, %d rows, %v compressed, %v uncompressed\n",
			i, rg.FileOffset, rg.NumRows,
			humanize.Bytes(uint64(rg.TotalCompressedSize)),
			humanize.Bytes(uint64(rg.TotalByteSize)))
		for _, chunk := range rg.Columns {
			meta := chunk.MetaData
			fmt.Printf("\t\tname: %s, type: %s, codec: %s, %d values, %d nulls, %v compressed, %v uncompressed\n",
				meta.PathInSchema[0], meta.Type, meta.Codec,
				meta.NumValues, meta.Statistics.NullCount,
				humanize.Bytes(uint64(meta.TotalCompressedSize)),
				humanize.Bytes(uint64(meta.TotalUncompressedSize)))
		}
	}
	return nil
}
