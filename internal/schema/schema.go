package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

type ColumnSchema struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	TypeLength int    `yaml:"type_length,omitempty"`
}

type FileSchema struct {
	Columns []ColumnSchema `yaml:"columns"`
}

var typeNames = map[string]types.PhysicalType{
	"boolean":              types.BooleanType,
	"int32":                types.Int32Type,
	"int64":                types.Int64Type,
	"int96":                types.Int96Type,
	"float":                types.FloatType,
	"double":               types.DoubleType,
	"byte_array":           types.ByteArrayType,
	"string":               types.ByteArrayType,
	"fixed_len_byte_array": types.FixedLenByteArrayType,
}

func New() *FileSchema {
	return &FileSchema{
		Columns: make([]ColumnSchema, 0),
	}
}

// Load reads a YAML schema definition from path.
func Load(path string) (*FileSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML schema definition.
func Parse(data []byte) (*FileSchema, error) {
	s := New()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// AddColumn appends a column. typeLength is only meaningful for
// fixed_len_byte_array and is ignored otherwise.
func (s *FileSchema) AddColumn(name, typeName string, nullable bool, typeLength int) error {
	// Validate column name uniqueness
	for _, col := range s.Columns {
		if col.Name == name {
			return fmt.Errorf("column name %s already exists", name)
		}
	}

	col := ColumnSchema{
		Name:     name,
		Type:     typeName,
		Nullable: nullable,
	}
	if typeNames[strings.ToLower(typeName)] == types.FixedLenByteArrayType {
		col.TypeLength = typeLength
	}
	s.Columns = append(s.Columns, col)
	return nil
}

func (s *FileSchema) GetColumn(name string) (*ColumnSchema, error) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("column %s not found", name)
}

func (s *FileSchema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.New("schema must have at least one column")
	}

	var errs []error
	names := make(map[string]bool)
	for _, col := range s.Columns {
		if col.Name == "" {
			errs = append(errs, errors.New("column name must not be empty"))
			continue
		}
		if names[col.Name] {
			errs = append(errs, fmt.Errorf("duplicate column name: %s", col.Name))
		}
		names[col.Name] = true

		t, ok := typeNames[strings.ToLower(col.Type)]
		if !ok {
			errs = append(errs, fmt.Errorf("column %s: unsupported type %q", col.Name, col.Type))
			continue
		}
		if t == types.FixedLenByteArrayType && col.TypeLength <= 0 {
			errs = append(errs, fmt.Errorf("column %s: type_length must be positive for %s", col.Name, col.Type))
		}
	}
	return errors.Join(errs...)
}

// ToSchema converts the definition into the writer's schema. Validate must
// have succeeded.
func (s *FileSchema) ToSchema() types.Schema {
	columns := make([]types.Column, len(s.Columns))
	for i, col := range s.Columns {
		name := strings.ToLower(col.Type)
		columns[i] = types.Column{
			Name:       col.Name,
			Type:       typeNames[name],
			Nullable:   col.Nullable,
			TypeLength: col.TypeLength,
			String:     name == "string",
		}
	}
	return types.Schema{Columns: columns}
}

// FromSchema is the inverse of ToSchema.
func FromSchema(schema types.Schema) (*FileSchema, error) {
	fs := New()
	for _, col := range schema.Columns {
		if err := fs.AddColumn(col.Name, TypeName(col), col.Nullable, col.TypeLength); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// TypeName returns the schema-file spelling of the column's type.
func TypeName(col types.Column) string {
	if col.Type == types.ByteArrayType && col.String {
		return "string"
	}
	for name, t := range typeNames {
		if t == col.Type && name != "string" {
			return name
		}
	}
	return col.Type.String()
}

// Marshal renders the schema as YAML.
func (s *FileSchema) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
