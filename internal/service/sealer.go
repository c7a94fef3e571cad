package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// sealer encrypts gated post metadata with AES-256-GCM. Sealed payloads are
// nonce || ciphertext, bound to the owning tribe through the additional data.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	if len(key) != 32 {
		return nil, errors.New("content key must be exactly 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func tribeAAD(tribeID uint) []byte {
	return binary.BigEndian.AppendUint64([]byte("tribe:"), uint64(tribeID))
}

func (s *sealer) seal(tribeID uint, plaintext string) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(plaintext), tribeAAD(tribeID)), nil
}

func (s *sealer) open(tribeID uint, payload []byte) (string, error) {
	n := s.aead.NonceSize()
	if len(payload) < n {
		return "", errors.New("sealed metadata is too short")
	}
	plaintext, err := s.aead.Open(nil, payload[:n], payload[n:], tribeAAD(tribeID))
	if err != nil {
		return "", fmt.Errorf("open sealed metadata: %w", err)
	}
	return string(plaintext), nil
}
