package service

import (
	"context"
	"errors"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/signature"
	"tribehub/internal/validation"

	"gorm.io/gorm"
)

var errSignerNotAuthorized = errors.New("signer is not authorized for this organization")

// DispenserService holds value in custody for organizations and releases it against
// off-chain signatures from the organization or its registered signers.
type DispenserService struct {
	exec *ledger.Executor
}

func NewDispenserService(exec *ledger.Executor) *DispenserService {
	return &DispenserService{exec: exec}
}

// checkSignature decodes sig and recovers its signer over digest. It returns the replay key.
func checkSignature(sigHex string, digest []byte) (models.Address, string, error) {
	sig, err := signature.Parse(sigHex)
	if err != nil {
		return models.ZeroAddress, "", models.NewSignatureInvalidError(err)
	}
	hash, err := signature.Hash(sig)
	if err != nil {
		return models.ZeroAddress, "", models.NewSignatureInvalidError(err)
	}
	signer, err := signature.Recover(digest, sig)
	if err != nil {
		return models.ZeroAddress, "", models.NewSignatureInvalidError(err)
	}
	return signer, hash, nil
}

// consumeSignature marks hash used inside the operation, failing on replay.
func consumeSignature(ctx context.Context, tx *ledger.Tx, hash, purpose string, signer, account models.Address) error {
	fresh, err := repository.NewSignatureRepository(tx.DB).Consume(ctx, &models.UsedSignature{
		Hash:    hash,
		Purpose: purpose,
		Signer:  signer,
		Account: account,
		OpSeq:   tx.Seq,
		UsedAt:  tx.Now,
	})
	if err != nil {
		return err
	}
	if !fresh {
		return models.NewSignatureAlreadyUsedError()
	}
	return nil
}

// Deposit moves amount from the caller's wallet into the caller's custody balance.
func (s *DispenserService) Deposit(ctx context.Context, caller models.Address, amount int64) (*ledger.Receipt, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "dispenserDeposit", Caller: caller}, func(tx *ledger.Tx) error {
		if err := ledger.Debit(tx.DB, caller, amount, tx.Now); err != nil {
			return err
		}
		if err := repository.NewDispenserRepository(tx.DB).Credit(ctx, caller, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("DispenserDeposited", "dispenser", caller, ledger.Fields{"organization": caller, "amount": amount})
	})
}

// Withdraw returns amount from the caller's custody balance to the caller's wallet.
func (s *DispenserService) Withdraw(ctx context.Context, caller models.Address, amount int64) (*ledger.Receipt, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "dispenserWithdraw", Caller: caller}, func(tx *ledger.Tx) error {
		if err := repository.NewDispenserRepository(tx.DB).Debit(ctx, caller, amount, tx.Now); err != nil {
			return err
		}
		if err := ledger.Credit(tx.DB, caller, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("DispenserWithdrawn", "dispenser", caller, ledger.Fields{"organization": caller, "amount": amount})
	})
}

// AddSigner lets signer authorize spends from the caller's custody balance.
func (s *DispenserService) AddSigner(ctx context.Context, caller, signer models.Address) (*ledger.Receipt, error) {
	if err := requireAccount("signer", signer); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "dispenserAddSigner", Caller: caller}, func(tx *ledger.Tx) error {
		added, err := repository.NewDispenserRepository(tx.DB).AddSigner(ctx, caller, signer, tx.Now)
		if err != nil || !added {
			return err
		}
		return tx.Emit("DispenserSignerAdded", "dispenser", caller, ledger.Fields{"organization": caller, "signer": signer})
	})
}

func (s *DispenserService) RemoveSigner(ctx context.Context, caller, signer models.Address) (*ledger.Receipt, error) {
	return s.exec.Execute(ctx, ledger.Call{Op: "dispenserRemoveSigner", Caller: caller}, func(tx *ledger.Tx) error {
		removed, err := repository.NewDispenserRepository(tx.DB).RemoveSigner(ctx, caller, signer)
		if err != nil || !removed {
			return err
		}
		return tx.Emit("DispenserSignerRemoved", "dispenser", caller, ledger.Fields{"organization": caller, "signer": signer})
	})
}

func authorizedSpender(ctx context.Context, db *gorm.DB, org, signer models.Address) (bool, error) {
	if signer == org {
		return true, nil
	}
	return repository.NewDispenserRepository(db).IsSigner(ctx, org, signer)
}

// SpendInput is a signed release of custody value to recipient.
type SpendInput struct {
	Organization models.Address
	Recipient    models.Address
	Amount       int64
	Reason       string
	Signature    string
}

// SpendWithSignature releases value from org's custody. Any caller may relay the signature;
// it is consumed in the same operation as the debit.
func (s *DispenserService) SpendWithSignature(ctx context.Context, caller models.Address, in SpendInput) (*ledger.Receipt, error) {
	if err := requireAccount("organization", in.Organization); err != nil {
		return nil, err
	}
	if err := requireAccount("recipient", in.Recipient); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	if err := validation.ValidateMetadata(in.Reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	signer, hash, err := checkSignature(in.Signature, signature.DispenserDigest(in.Organization, in.Recipient, in.Amount, in.Reason))
	if err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "dispenserSpend", Caller: caller}, func(tx *ledger.Tx) error {
		if err := consumeSignature(ctx, tx, hash, models.SignaturePurposeDispenser, signer, in.Recipient); err != nil {
			return err
		}
		ok, err := authorizedSpender(ctx, tx.DB, in.Organization, signer)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewSignatureInvalidError(errSignerNotAuthorized)
		}
		if err := repository.NewDispenserRepository(tx.DB).Debit(ctx, in.Organization, in.Amount, tx.Now); err != nil {
			return err
		}
		if err := ledger.Credit(tx.DB, in.Recipient, in.Amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("DispenserSpent", "dispenser", in.Organization, ledger.Fields{
			"organization": in.Organization,
			"recipient":    in.Recipient,
			"amount":       in.Amount,
			"reason":       in.Reason,
			"signer":       signer,
			"signature":    hash,
		})
	})
}

func (s *DispenserService) Balance(ctx context.Context, org models.Address) (int64, error) {
	return repository.NewDispenserRepository(s.exec.DB()).Balance(ctx, org)
}

func (s *DispenserService) Signers(ctx context.Context, org models.Address) ([]models.Address, error) {
	return repository.NewDispenserRepository(s.exec.DB()).Signers(ctx, org)
}
