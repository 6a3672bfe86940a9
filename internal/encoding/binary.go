package encoding

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Magic opens and closes every file.
const Magic = "PAR1"

// TrailerSize is the footer length field plus the closing magic.
const TrailerSize = 8

func WriteHeader(w io.Writer) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	return nil
}

// WriteFooter writes a serialized footer followed by its little-endian
// length and the closing magic.
func WriteFooter(w io.Writer, footer []byte) error {
	if uint64(len(footer)) > math.MaxUint32 {
		return errors.Wrapf(ErrFooterSerialization, "footer of %d bytes does not fit the trailer", len(footer))
	}

	if _, err := w.Write(footer); err != nil {
		return errors.Wrap(err, "failed to write footer")
	}

	var trailer [TrailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:4], uint32(len(footer)))
	copy(trailer[4:], Magic)
	if _, err := w.Write(trailer[:]); err != nil {
		return errors.Wrap(err, "failed to write trailer")
	}
	return nil
}
