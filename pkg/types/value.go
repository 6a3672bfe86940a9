package types

import (
	"bytes"
	"fmt"
)

// Value is a single field value. The concrete types below form a closed set,
// one per PhysicalType; a nil Value is a null.
type Value interface {
	Kind() PhysicalType
	isValue()
}

type (
	Bool              bool
	Int32             int32
	Int64             int64
	Int96             [12]byte
	Float             float32
	Double            float64
	ByteArray         []byte
	FixedLenByteArray []byte
)

func (Bool) Kind() PhysicalType              { return BooleanType }
func (Int32) Kind() PhysicalType             { return Int32Type }
func (Int64) Kind() PhysicalType             { return Int64Type }
func (Int96) Kind() PhysicalType             { return Int96Type }
func (Float) Kind() PhysicalType             { return FloatType }
func (Double) Kind() PhysicalType            { return DoubleType }
func (ByteArray) Kind() PhysicalType         { return ByteArrayType }
func (FixedLenByteArray) Kind() PhysicalType { return FixedLenByteArrayType }

func (Bool) isValue()              {}
func (Int32) isValue()             {}
func (Int64) isValue()             {}
func (Int96) isValue()             {}
func (Float) isValue()             {}
func (Double) isValue()            {}
func (ByteArray) isValue()         {}
func (FixedLenByteArray) isValue() {}

// String is a convenience constructor for UTF-8 ByteArray values.
func String(s string) ByteArray { return ByteArray(s) }

// Row is one record, holding one value per schema column in column order.
type Row []Value

// CheckValue reports whether v can be stored in col.
func CheckValue(col Column, v Value) error {
	if v == nil {
		if !col.Nullable {
			return fmt.Errorf("null value not allowed for non-nullable column %s", col.Name)
		}
		return nil
	}
	if v.Kind() != col.Type {
		return fmt.Errorf("column %s expects %s, got %s", col.Name, col.Type, v.Kind())
	}
	if b, ok := v.(FixedLenByteArray); ok && len(b) != col.TypeLength {
		return fmt.Errorf("column %s expects %d bytes, got %d", col.Name, col.TypeLength, len(b))
	}
	return nil
}

// Equal compares two values, treating two nulls as equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case ByteArray:
		return bytes.Equal(x, b.(ByteArray))
	case FixedLenByteArray:
		return bytes.Equal(x, b.(FixedLenByteArray))
	default:
		return a == b
	}
}
