package encryption

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studentia/internal/model"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
}

func TestSealer_PlainWithoutKey(t *testing.T) {
	s, err := NewSealer("")
	require.NoError(t, err)
	assert.Equal(t, model.StoragePlain, s.Mode())

	p, err := s.Seal([]byte("transcript"))
	require.NoError(t, err)
	assert.Nil(t, p.Envelope)
	assert.Equal(t, []byte("transcript"), p.Plain)

	out, err := s.Open(model.StoragePlain, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("transcript"), out)
}

func TestSealer_EncryptedRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)
	assert.Equal(t, model.StorageEncrypted, s.Mode())

	content := []byte("%PDF-1.7 portfolio")
	p, err := s.Seal(content)
	require.NoError(t, err)
	require.NotNil(t, p.Envelope)
	assert.Nil(t, p.Plain)
	assert.Len(t, p.Envelope.IV, 12)
	assert.Len(t, p.Envelope.Tag, 16)
	assert.Len(t, p.Envelope.Ciphertext, len(content))
	assert.NotEqual(t, content, p.Envelope.Ciphertext)

	out, err := s.Open(model.StorageEncrypted, p)
	require.NoError(t, err)
	assert.Equal(t, content, out)
}

func TestSealer_TamperedTagFails(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	p, err := s.Seal([]byte("grades"))
	require.NoError(t, err)
	p.Envelope.Tag[0] ^= 0xff

	_, err = s.Open(model.StorageEncrypted, p)
	assert.Error(t, err)
}

func TestSealer_InvalidKey(t *testing.T) {
	_, err := NewSealer("not base64!!")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewSealer(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSealer_EncryptedWithoutKey(t *testing.T) {
	enc, err := NewSealer(testKey())
	require.NoError(t, err)
	p, err := enc.Seal([]byte("x"))
	require.NoError(t, err)

	plain, err := NewSealer("")
	require.NoError(t, err)
	_, err = plain.Open(model.StorageEncrypted, p)
	assert.ErrorIs(t, err, ErrKeyMissing)
}
