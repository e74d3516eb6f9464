// Package encryption seals document payloads with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Freeeeeet/studentia/internal/model"
)

const (
	keySize = 32
	ivSize  = 12
	tagSize = 16
)

var (
	ErrInvalidKey = errors.New("DATA_ENC_KEY must be base64 of 32 bytes")
	ErrKeyMissing = errors.New("document is encrypted but no DATA_ENC_KEY is configured")
	ErrBadPayload = errors.New("malformed encrypted payload")
)

// Sealer decides the storage mode once, at construction: encrypted when a key
// is configured, plain otherwise.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a sealer from a base64 key. An empty key selects plain mode.
func NewSealer(keyB64 string) (*Sealer, error) {
	if keyB64 == "" {
		return &Sealer{}, nil
	}

	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Mode returns the storage mode new payloads are written in
func (s *Sealer) Mode() model.StorageMode {
	if s.aead == nil {
		return model.StoragePlain
	}
	return model.StorageEncrypted
}

// Seal stores content in the sealer's mode
func (s *Sealer) Seal(content []byte) (model.Payload, error) {
	if s.aead == nil {
		plain := make([]byte, len(content))
		copy(plain, content)
		return model.Payload{Plain: plain}, nil
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return model.Payload{}, fmt.Errorf("generate iv: %w", err)
	}

	sealed := s.aead.Seal(nil, iv, content, nil)
	split := len(sealed) - tagSize

	return model.Payload{
		Envelope: &model.Envelope{
			IV:         iv,
			Tag:        sealed[split:],
			Ciphertext: sealed[:split],
		},
	}, nil
}

// Open returns the original content of a payload stored in mode
func (s *Sealer) Open(mode model.StorageMode, p model.Payload) ([]byte, error) {
	switch mode {
	case model.StoragePlain:
		return p.Plain, nil
	case model.StorageEncrypted:
		if s.aead == nil {
			return nil, ErrKeyMissing
		}
		env := p.Envelope
		if env == nil || len(env.IV) != ivSize || len(env.Tag) != tagSize {
			return nil, ErrBadPayload
		}
		sealed := make([]byte, 0, len(env.Ciphertext)+tagSize)
		sealed = append(sealed, env.Ciphertext...)
		sealed = append(sealed, env.Tag...)
		plain, err := s.aead.Open(nil, env.IV, sealed, nil)
		if err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", string(mode))
	}
}
