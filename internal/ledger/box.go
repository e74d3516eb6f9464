package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Freeeeeet/studentia/internal/model"
)

// ErrMalformedBoxValue is returned for box values the contract never writes.
var ErrMalformedBoxValue = errors.New("malformed box value")

// boxValueSize is the size of a Box(UInt64) value.
const boxValueSize = 8

// DecodeBoxValue decodes a consent box value.
//
//	0 bytes   -> 0
//	8 bytes   -> big-endian uint64
//	otherwise -> ErrMalformedBoxValue
func DecodeBoxValue(value []byte) (uint64, error) {
	switch len(value) {
	case 0:
		return 0, nil
	case boxValueSize:
		return binary.BigEndian.Uint64(value), nil
	default:
		return 0, fmt.Errorf("%w: %d bytes, want 0 or %d", ErrMalformedBoxValue, len(value), boxValueSize)
	}
}

// EncodeBoxValue is the inverse of DecodeBoxValue for non-empty values
func EncodeBoxValue(v uint64) []byte {
	buf := make([]byte, boxValueSize)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// StatusFromNumeric maps a decoded box value to a consent status
func StatusFromNumeric(v uint64) model.ConsentStatus {
	if v == 1 {
		return model.ConsentGranted
	}
	return model.ConsentRevoked
}
