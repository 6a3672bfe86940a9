package types

import "fmt"

// PhysicalType is the storage type of a column.
type PhysicalType int

const (
	BooleanType PhysicalType = iota
	Int32Type
	Int64Type
	Int96Type
	FloatType
	DoubleType
	ByteArrayType
	FixedLenByteArrayType
)

var physicalTypeNames = [...]string{
	"Boolean", "Int32", "Int64", "Int96",
	"Float", "Double", "ByteArray", "FixedLenByteArray",
}

func (t PhysicalType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("PhysicalType(%d)", int(t))
	}
	return physicalTypeNames[t]
}

// Valid reports whether t is one of the supported physical types.
func (t PhysicalType) Valid() bool {
	return t >= BooleanType && t <= FixedLenByteArrayType
}

// FixedSize returns the encoded width of a single value, or 0 for
// variable-length types. Booleans report 1 although they are bit-packed.
func (t PhysicalType) FixedSize() int {
	switch t {
	case BooleanType:
		return 1
	case Int32Type, FloatType:
		return 4
	case Int64Type, DoubleType:
		return 8
	case Int96Type:
		return 12
	default:
		return 0
	}
}

type Column struct {
	Name     string
	Type     PhysicalType
	Nullable bool
	// TypeLength is the byte width of FixedLenByteArray values.
	TypeLength int
	// String marks a ByteArray column as UTF-8 text.
	String bool
}

type Schema struct {
	Columns []Column
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, col := range s.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}
