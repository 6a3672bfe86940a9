package storage

import (
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/ivan-cunha/prism-parquet/pkg/types"
)

const sampleSize = 100

type inferredKind int

const (
	kindBoolean inferredKind = iota
	kindInt32
	kindInt64
	kindDouble
	kindString
	numKinds
)

type TypeInference struct {
	possible    [numKinds]bool
	nullCount   int
	sampleCount int
	nullable    bool
}

func newTypeInference() TypeInference {
	inf := TypeInference{}
	for k := range inf.possible {
		inf.possible[k] = true
	}
	return inf
}

// InferSchema samples up to 100 records of a CSV stream with a header line
// and picks the most specific type every sampled value of a column parses
// as. The reader is rewound before returning.
func InferSchema(r io.ReadSeeker, delimiter rune) (types.Schema, error) {
	reader := newCSVReader(r, delimiter)

	headers, err := reader.Read()
	if err != nil {
		return types.Schema{}, errors.Wrap(err, "error reading header")
	}
	headers = append([]string(nil), headers...)

	inferences := make([]TypeInference, len(headers))
	for i := range inferences {
		inferences[i] = newTypeInference()
	}

	for i := 0; i < sampleSize; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.Schema{}, errors.Wrapf(err, "error reading sample row %d", i+1)
		}
		if len(row) != len(headers) {
			return types.Schema{}, errors.Wrapf(ErrSchemaMismatch, "sample row %d has %d fields, header has %d", i+1, len(row), len(headers))
		}

		for j, value := range row {
			analyzeValue(&inferences[j], value)
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return types.Schema{}, err
	}

	return types.Schema{Columns: finalizeTypes(inferences, headers)}, nil
}

func analyzeValue(inference *TypeInference, value string) {
	inference.sampleCount++

	if isNull(value) {
		inference.nullCount++
		inference.nullable = true
		return
	}

	if inference.possible[kindBoolean] {
		if _, err := parseBoolean(value); err != nil {
			inference.possible[kindBoolean] = false
		}
	}

	if inference.possible[kindInt32] {
		if val, err := parseInt64(value); err != nil || val > math.MaxInt32 || val < math.MinInt32 {
			inference.possible[kindInt32] = false
		}
	}

	if inference.possible[kindInt64] {
		if _, err := parseInt64(value); err != nil {
			inference.possible[kindInt64] = false
		}
	}

	if inference.possible[kindDouble] {
		if _, err := parseFloat64(value); err != nil {
			inference.possible[kindDouble] = false
		}
	}
}

func finalizeTypes(inferences []TypeInference, headers []string) []types.Column {
	result := make([]types.Column, len(inferences))

	for i, inf := range inferences {
		col := types.Column{Name: headers[i], Nullable: inf.nullable}

		// A column without a single non-null sample stays a string.
		kind := kindString
		if inf.nullCount < inf.sampleCount {
			for k := kindBoolean; k < kindString; k++ {
				if inf.possible[k] {
					kind = k
					break
				}
			}
		}

		switch kind {
		case kindBoolean:
			col.Type = types.BooleanType
		case kindInt32:
			col.Type = types.Int32Type
		case kindInt64:
			col.Type = types.Int64Type
		case kindDouble:
			col.Type = types.DoubleType
		default:
			col.Type = types.ByteArrayType
			col.String = true
		}
		result[i] = col
	}

	return result
}
