package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studentia/internal/model"
)

func TestDecodeBoxValue(t *testing.T) {
	t.Run("empty_is_zero", func(t *testing.T) {
		v, err := DecodeBoxValue(nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), v)
		assert.Equal(t, model.ConsentRevoked, StatusFromNumeric(v))
	})

	t.Run("eight_bytes_big_endian", func(t *testing.T) {
		v, err := DecodeBoxValue([]byte{0, 0, 0, 0, 0, 0, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v)
		assert.Equal(t, model.ConsentGranted, StatusFromNumeric(v))

		v, err = DecodeBoxValue([]byte{0, 0, 0, 0, 0, 0, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, uint64(256), v)
		assert.Equal(t, model.ConsentRevoked, StatusFromNumeric(v))
	})

	t.Run("short_values_are_malformed", func(t *testing.T) {
		for n := 1; n < 8; n++ {
			_, err := DecodeBoxValue(make([]byte, n))
			assert.ErrorIs(t, err, ErrMalformedBoxValue, "len %d", n)
		}
	})

	t.Run("long_values_are_malformed", func(t *testing.T) {
		_, err := DecodeBoxValue(make([]byte, 9))
		assert.ErrorIs(t, err, ErrMalformedBoxValue)
	})

	t.Run("encode_round_trip", func(t *testing.T) {
		for _, want := range []uint64{0, 1, 42, 1 << 63} {
			got, err := DecodeBoxValue(EncodeBoxValue(want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})
}
