package signature

import (
	"encoding/hex"
	"fmt"
	"strings"

	"tribehub/internal/models"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Signer holds a secp256k1 key used by operators (the verifier, dispenser signers).
type Signer struct {
	key *secp256k1.PrivateKey
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Signer{key: key}, nil
}

// SignerFromHex loads a signer from a hex-encoded 32-byte private key.
func SignerFromHex(s string) (*Signer, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	return &Signer{key: secp256k1.PrivKeyFromBytes(raw)}, nil
}

// Address returns the signer's account address.
func (s *Signer) Address() models.Address {
	return PublicKeyAddress(s.key.PubKey())
}

// PrivateKeyHex exports the key for operator tooling.
func (s *Signer) PrivateKeyHex() string {
	b := s.key.Key.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// Sign signs digest under the personal-message prefix and returns r||s||v with v in {27, 28}.
func (s *Signer) Sign(digest []byte) []byte {
	compact := ecdsa.SignCompact(s.key, PersonalMessageHash(digest), false)
	out := make([]byte, Length)
	copy(out, compact[1:])
	out[64] = compact[0]
	return out
}

// SignHex is Sign rendered as 0x-prefixed hex.
func (s *Signer) SignHex(digest []byte) string {
	return "0x" + hex.EncodeToString(s.Sign(digest))
}
