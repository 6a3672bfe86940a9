package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
columns:
  - name: name
    type: string
    nullable: true
  - name: age
    type: int64
  - name: digest
    type: fixed_len_byte_array
    type_length: 16
`))
	require.NoError(t, err)

	got := s.ToSchema()
	require.Equal(t, []types.Column{
		{Name: "name", Type: types.ByteArrayType, Nullable: true, String: true},
		{Name: "age", Type: types.Int64Type},
		{Name: "digest", Type: types.FixedLenByteArrayType, TypeLength: 16},
	}, got.Columns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", `columns: []`},
		{"duplicate", "columns:\n  - {name: a, type: int32}\n  - {name: a, type: int64}\n"},
		{"unknown type", "columns:\n  - {name: a, type: decimal}\n"},
		{"missing length", "columns:\n  - {name: a, type: fixed_len_byte_array}\n"},
		{"empty name", "columns:\n  - {name: '', type: int32}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestAddColumnRejectsDuplicates(t *testing.T) {
	s := New()
	require.NoError(t, s.AddColumn("a", "int32", false, 0))
	require.Error(t, s.AddColumn("a", "int64", false, 0))

	col, err := s.GetColumn("a")
	require.NoError(t, err)
	require.Equal(t, "int32", col.Type)

	_, err = s.GetColumn("b")
	require.Error(t, err)
}

func TestAddColumnTypeLength(t *testing.T) {
	s := New()
	require.NoError(t, s.AddColumn("digest", "fixed_len_byte_array", false, 16))
	require.NoError(t, s.AddColumn("n", "int64", true, 16))
	require.NoError(t, s.Validate())

	require.Equal(t, []types.Column{
		{Name: "digest", Type: types.FixedLenByteArrayType, TypeLength: 16},
		{Name: "n", Type: types.Int64Type, Nullable: true},
	}, s.ToSchema().Columns)

	require.NoError(t, s.AddColumn("bad", "fixed_len_byte_array", false, 0))
	require.Error(t, s.Validate())
}

func TestFromSchemaRejectsDuplicates(t *testing.T) {
	_, err := FromSchema(types.Schema{Columns: []types.Column{
		{Name: "a", Type: types.Int32Type},
		{Name: "a", Type: types.Int64Type},
	}})
	require.Error(t, err)
}

func TestFromSchemaRoundTrip(t *testing.T) {
	in := types.Schema{Columns: []types.Column{
		{Name: "flag", Type: types.BooleanType},
		{Name: "blob", Type: types.ByteArrayType, Nullable: true},
		{Name: "text", Type: types.ByteArrayType, String: true},
		{Name: "ts", Type: types.Int96Type},
		{Name: "uuid", Type: types.FixedLenByteArrayType, TypeLength: 16},
	}}

	fs, err := FromSchema(in)
	require.NoError(t, err)
	out, err := fs.Marshal()
	require.NoError(t, err)

	s, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, in, s.ToSchema())
}
