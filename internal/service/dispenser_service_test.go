package service

import (
	"testing"

	"tribehub/internal/models"
	"tribehub/internal/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispenserService_SpendWithSignature(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	org, err := signature.GenerateSigner()
	require.NoError(t, err)
	delegate, err := signature.GenerateSigner()
	require.NoError(t, err)
	stranger, err := signature.GenerateSigner()
	require.NoError(t, err)

	_, err = f.wallet.Mint(f.ctx, superAdmin, org.Address(), 100)
	require.NoError(t, err)
	_, err = f.dispenser.Deposit(f.ctx, org.Address(), 80)
	require.NoError(t, err)
	_, err = f.dispenser.AddSigner(f.ctx, org.Address(), delegate.Address())
	require.NoError(t, err)

	spend := func(signer *signature.Signer, amount int64, reason string) SpendInput {
		digest := signature.DispenserDigest(org.Address(), carol, amount, reason)
		return SpendInput{
			Organization: org.Address(),
			Recipient:    carol,
			Amount:       amount,
			Reason:       reason,
			Signature:    signer.SignHex(digest),
		}
	}

	byDelegate := spend(delegate, 30, "prize")
	_, err = f.dispenser.SpendWithSignature(f.ctx, bob, byDelegate)
	require.NoError(t, err)

	_, err = f.dispenser.SpendWithSignature(f.ctx, bob, byDelegate)
	requireCode(t, err, models.CodeSignatureAlreadyUsed)

	_, err = f.dispenser.SpendWithSignature(f.ctx, bob, spend(stranger, 10, "nope"))
	requireCode(t, err, models.CodeSignatureInvalid)

	_, err = f.dispenser.SpendWithSignature(f.ctx, bob, spend(org, 500, "too much"))
	requireCode(t, err, models.CodeInsufficientBalance)

	tampered := spend(org, 10, "bonus")
	tampered.Amount = 20
	_, err = f.dispenser.SpendWithSignature(f.ctx, bob, tampered)
	requireCode(t, err, models.CodeSignatureInvalid)

	custody, err := f.dispenser.Balance(f.ctx, org.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(50), custody)
	received, err := f.wallet.Balance(f.ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, int64(30), received)

	_, err = f.dispenser.Withdraw(f.ctx, org.Address(), 50)
	require.NoError(t, err)
	wallet, err := f.wallet.Balance(f.ctx, org.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(70), wallet)
}
