package signature

import (
	"encoding/hex"
	"testing"

	"tribehub/internal/models"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256KnownVector(t *testing.T) {
	t.Parallel()
	// keccak256("") differs from sha3-256("").
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		Keccak256Hex(nil),
	)
}

func TestPublicKeyAddressKnownVector(t *testing.T) {
	t.Parallel()
	// Private key 1 maps to the well-known generator address.
	s, err := SignerFromHex("0x0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, models.Address("0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"), s.Address())
}

func TestPackedEncoding(t *testing.T) {
	t.Parallel()

	account := models.MustParseAddress("0x00000000000000000000000000000000000000ff")
	enc := new(Packed).Address(account).Uint256(100).String("ok").Bytes()
	require.Len(t, enc, 20+32+2)
	assert.Equal(t, byte(0xff), enc[19])
	assert.Equal(t, byte(100), enc[51])
	assert.Equal(t, "ok", string(enc[52:]))
}

func TestSignAndRecover(t *testing.T) {
	t.Parallel()

	signer, err := GenerateSigner()
	require.NoError(t, err)
	account := models.MustParseAddress("0x1111111111111111111111111111111111111111")

	digest := RedemptionDigest(account, 100, 7)
	sig := signer.Sign(digest)
	require.Len(t, sig, Length)

	got, err := Recover(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), got)

	t.Run("different fields recover a different address", func(t *testing.T) {
		other, err := Recover(RedemptionDigest(account, 101, 7), sig)
		require.NoError(t, err)
		assert.NotEqual(t, signer.Address(), other)
	})

	t.Run("zero-based recovery id accepted with identical hash", func(t *testing.T) {
		alt := append([]byte(nil), sig...)
		alt[64] -= 27
		got, err := Recover(digest, alt)
		require.NoError(t, err)
		assert.Equal(t, signer.Address(), got)

		h1, err := Hash(sig)
		require.NoError(t, err)
		h2, err := Hash(alt)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("high s rejected", func(t *testing.T) {
		var s secp256k1.ModNScalar
		s.SetByteSlice(sig[32:64])
		s.Negate()
		high := append([]byte(nil), sig...)
		sb := s.Bytes()
		copy(high[32:64], sb[:])
		high[64] = 55 - high[64]

		_, err := Recover(digest, high)
		assert.ErrorIs(t, err, ErrHighS)
		_, err = Hash(high)
		assert.ErrorIs(t, err, ErrHighS)
	})

	t.Run("bad recovery id rejected", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[64] = 5
		_, err := Recover(digest, bad)
		assert.ErrorIs(t, err, ErrRecoveryID)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	_, err := Parse("0x1234")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("zz")
	assert.Error(t, err)

	raw := make([]byte, Length)
	raw[64] = 27
	got, err := Parse("0x" + hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDispenserDigestBindsReason(t *testing.T) {
	t.Parallel()

	org := models.MustParseAddress("0x2222222222222222222222222222222222222222")
	to := models.MustParseAddress("0x3333333333333333333333333333333333333333")
	assert.NotEqual(t, DispenserDigest(org, to, 5, "prize"), DispenserDigest(org, to, 5, "refund"))
	assert.NotEqual(t, DispenserDigest(org, to, 5, "prize"), DispenserDigest(to, org, 5, "prize"))
}
