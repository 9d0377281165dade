package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedBytes = 3

// EncodeLen encodes the specified length into the writer using the compact
// u16 encoding.
//
// If length > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, length int) (n int, err error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	written := 0
	valBuf := make([]byte, 1)

	for {
		valBuf[0] = byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			n, err := w.Write(valBuf)
			written += n

			return written, err
		}

		valBuf[0] |= 0x80
		n, err := w.Write(valBuf)
		written += n
		if err != nil {
			return written, err
		}
	}
}

// DecodeLen decodes a shortvec encoded length from the reader.
func DecodeLen(r io.Reader) (val int, err error) {
	var offset int
	valBuf := make([]byte, 1)

	for {
		if offset >= maxEncodedBytes {
			return 0, errors.Errorf("invalid size: %d (max %d)", offset+1, maxEncodedBytes)
		}

		if _, err := io.ReadFull(r, valBuf); err != nil {
			return 0, err
		}

		val |= int(valBuf[0]&0x7f) << (offset * 7)
		offset++

		if valBuf[0]&0x80 == 0 {
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	return val, nil
}
