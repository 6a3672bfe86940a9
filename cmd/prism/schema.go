package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/ivan-cunha/prism-parquet/internal/schema"
	"github.com/ivan-cunha/prism-parquet/internal/storage"
)

// schemaCommand prints the schema inferred from a CSV file as YAML, ready to
// be edited and passed back to convert.
type schemaCommand struct {
	input     string
	delimiter string
}

func addSchemaCommand(app *kingpin.Application) {
	cmd := &schemaCommand{}
	c := app.Command("schema", "Print the schema inferred from a CSV file.").Action(cmd.run)
	c.Flag("input", "Input CSV file.").Short('i').Required().ExistingFileVar(&cmd.input)
	c.Flag("delimiter", "Field delimiter.").Default(",").StringVar(&cmd.delimiter)
}

func (cmd *schemaCommand) run(_ *kingpin.ParseContext) error {
	delimiter, err := parseDelimiter(cmd.delimiter)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.input)
	if err != nil {
		return err
	}
	defer f.Close()

	sch, err := storage.InferSchema(f, delimiter)
	if err != nil {
		return err
	}

	fs, err := schema.FromSchema(sch)
	if err != nil {
		return err
	}
	out, err := fs.Marshal()
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
