package codec

import (
	"bytes"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

// maxDistinct bounds the hash set; past it the distinct count is unknown.
const maxDistinct = 1 << 16

type statsBuilder struct {
	nulls     int64
	min, max  types.Value
	hashes    map[uint64]struct{}
	overflown bool
}

func newStatsBuilder() *statsBuilder {
	return &statsBuilder{
		hashes: make(map[uint64]struct{}),
	}
}

func (s *statsBuilder) observeNull() { s.nulls++ }

// observe records a non-null value; encoded is its PLAIN form without a
// length prefix.
func (s *statsBuilder) observe(v types.Value, encoded []byte) {
	if !s.overflown {
		s.hashes[xxhash.Sum64(encoded)] = struct{}{}
		if len(s.hashes) > maxDistinct {
			s.overflown = true
			s.hashes = nil
		}
	}

	if !ordered(v) {
		return
	}
	if s.min == nil || compare(v, s.min) < 0 {
		s.min = clone(v)
	}
	if s.max == nil || compare(v, s.max) > 0 {
		s.max = clone(v)
	}
}

func (s *statsBuilder) build() Statistics {
	stats := Statistics{NullCount: s.nulls}
	if !s.overflown {
		stats.DistinctCount = int64(len(s.hashes))
	}
	if s.min != nil {
		stats.HasMinMax = true
		stats.Min = statBytes(withZeroSign(s.min, -1))
		stats.Max = statBytes(withZeroSign(s.max, 1))
	}
	return stats
}

func statBytes(v types.Value) []byte {
	if b, ok := v.(types.ByteArray); ok {
		return bytes.Clone(b)
	}
	return appendPlain(nil, v)
}

// withZeroSign gives a zero float bound the sign readers expect: -0 for a
// min and +0 for a max.
func withZeroSign(v types.Value, sign float64) types.Value {
	switch x := v.(type) {
	case types.Float:
		if x == 0 {
			return types.Float(math.Copysign(0, sign))
		}
	case types.Double:
		if x == 0 {
			return types.Double(math.Copysign(0, sign))
		}
	}
	return v
}

// ordered reports whether v takes part in min/max. INT96 has no defined sort
// order and NaN is never a bound.
func ordered(v types.Value) bool {
	switch x := v.(type) {
	case types.Int96:
		return false
	case types.Float:
		return !math.IsNaN(float64(x))
	case types.Double:
		return !math.IsNaN(float64(x))
	default:
		return true
	}
}

// compare orders two non-null values of the same kind. Byte strings compare
// as unsigned bytes.
func compare(a, b types.Value) int {
	switch x := a.(type) {
	case types.Bool:
		y := b.(types.Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case types.Int32:
		return cmp(x, b.(types.Int32))
	case types.Int64:
		return cmp(x, b.(types.Int64))
	case types.Float:
		return cmp(x, b.(types.Float))
	case types.Double:
		return cmp(x, b.(types.Double))
	case types.ByteArray:
		return bytes.Compare(x, b.(types.ByteArray))
	case types.FixedLenByteArray:
		return bytes.Compare(x, b.(types.FixedLenByteArray))
	default:
		return 0
	}
}

func cmp[T types.Int32 | types.Int64 | types.Float | types.Double](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func clone(v types.Value) types.Value {
	switch x := v.(type) {
	case types.ByteArray:
		return types.ByteArray(bytes.Clone(x))
	case types.FixedLenByteArray:
		return types.FixedLenByteArray(bytes.Clone(x))
	default:
		return v
	}
}
