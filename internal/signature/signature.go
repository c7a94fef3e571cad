// Package signature verifies off-chain authorizations: Keccak-256 digests over packed
// fields, wrapped in the personal-message prefix and signed with secp256k1.
package signature

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"tribehub/internal/models"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Length is the size of an r||s||v signature.
const Length = 65

const personalPrefix = "\x19Ethereum Signed Message:\n32"

var (
	ErrMalformed  = errors.New("signature must be 65 bytes")
	ErrRecoveryID = errors.New("signature recovery id must be 0, 1, 27 or 28")
	ErrHighS      = errors.New("signature s value is not canonical")
)

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Keccak256Hex is Keccak256 rendered as 0x-prefixed hex.
func Keccak256Hex(data ...[]byte) string {
	return "0x" + hex.EncodeToString(Keccak256(data...))
}

// Packed builds a tightly packed encoding: addresses as 20 bytes, integers as
// 32-byte big-endian words, strings as their raw bytes.
type Packed struct {
	buf []byte
}

// Address appends a 20-byte address.
func (p *Packed) Address(a models.Address) *Packed {
	p.buf = append(p.buf, a.Bytes()...)
	return p
}

// Uint256 appends v as a 32-byte big-endian word.
func (p *Packed) Uint256(v uint64) *Packed {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], v)
	p.buf = append(p.buf, word[:]...)
	return p
}

// String appends the raw bytes of s.
func (p *Packed) String(s string) *Packed {
	p.buf = append(p.buf, s...)
	return p
}

// Bytes returns the encoding.
func (p *Packed) Bytes() []byte {
	return p.buf
}

// Digest returns keccak256 of the encoding.
func (p *Packed) Digest() []byte {
	return Keccak256(p.buf)
}

// RedemptionDigest binds a redemption to the redeeming account, the points spent and the collectible.
func RedemptionDigest(account models.Address, points int64, collectibleID uint) []byte {
	return new(Packed).Address(account).Uint256(uint64(points)).Uint256(uint64(collectibleID)).Digest()
}

// DispenserDigest binds a dispenser spend to organization, recipient, amount and reason.
func DispenserDigest(org, recipient models.Address, amount int64, reason string) []byte {
	return new(Packed).Address(org).Address(recipient).Uint256(uint64(amount)).String(reason).Digest()
}

// PersonalMessageHash applies the personal-message prefix to a 32-byte digest.
func PersonalMessageHash(digest []byte) []byte {
	return Keccak256([]byte(personalPrefix), digest)
}

// Parse decodes a 0x-prefixed hex signature and checks its length.
func Parse(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != Length {
		return nil, ErrMalformed
	}
	return raw, nil
}

// normalize returns r||s||v with v in {27, 28}, rejecting high-s signatures so each
// authorization has exactly one accepted encoding.
func normalize(sig []byte) ([]byte, error) {
	if len(sig) != Length {
		return nil, ErrMalformed
	}
	v := sig[64]
	switch v {
	case 0, 1:
		v += 27
	case 27, 28:
	default:
		return nil, ErrRecoveryID
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsOverHalfOrder() {
		return nil, ErrHighS
	}

	out := make([]byte, Length)
	copy(out, sig[:64])
	out[64] = v
	return out, nil
}

// Hash is the replay-protection key of a signature: keccak256 of its normalized form.
func Hash(sig []byte) (string, error) {
	n, err := normalize(sig)
	if err != nil {
		return "", err
	}
	return Keccak256Hex(n), nil
}

// Recover returns the address that signed digest under the personal-message prefix.
func Recover(digest, sig []byte) (models.Address, error) {
	n, err := normalize(sig)
	if err != nil {
		return models.ZeroAddress, err
	}

	compact := make([]byte, Length)
	compact[0] = n[64]
	copy(compact[1:], n[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, PersonalMessageHash(digest))
	if err != nil {
		return models.ZeroAddress, fmt.Errorf("recover public key: %w", err)
	}
	return PublicKeyAddress(pub), nil
}

// PublicKeyAddress derives the account address of a public key.
func PublicKeyAddress(pub *secp256k1.PublicKey) models.Address {
	uncompressed := pub.SerializeUncompressed()
	return models.AddressFromBytes(Keccak256(uncompressed[1:])[12:])
}
