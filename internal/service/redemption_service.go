package service

import (
	"context"
	"errors"
	"fmt"

	"tribehub/internal/cache"
	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/signature"
)

var errNoVerifier = errors.New("no redemption verifier is registered")

// RedemptionService trades points for collectibles against approvals signed by the
// registered off-chain verifier. Each approval can be used once.
type RedemptionService struct {
	exec *ledger.Executor
}

func NewRedemptionService(exec *ledger.Executor) *RedemptionService {
	return &RedemptionService{exec: exec}
}

// SetVerifier registers the account whose signatures authorize redemptions. Super-admin only.
func (s *RedemptionService) SetVerifier(ctx context.Context, caller, verifier models.Address) (*ledger.Receipt, error) {
	if err := requireAccount("verifier", verifier); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "setVerifier", Caller: caller}, func(tx *ledger.Tx) error {
		if err := requireSuperAdmin(ctx, tx.DB, caller); err != nil {
			return err
		}
		sigs := repository.NewSignatureRepository(tx.DB)
		previous, err := sigs.Verifier(ctx)
		if err != nil || previous == verifier {
			return err
		}
		if err := sigs.SetVerifier(ctx, verifier, tx.Now); err != nil {
			return err
		}
		return tx.Emit("VerifierSet", "redemption", models.RedemptionConfigID, ledger.Fields{"previous": previous, "verifier": verifier})
	})
}

func (s *RedemptionService) Verifier(ctx context.Context) (models.Address, error) {
	return repository.NewSignatureRepository(s.exec.DB()).Verifier(ctx)
}

// RedeemPoints burns points of the collectible's point type and mints the caller one unit.
// The signature must come from the verifier over (caller, points, collectibleID).
func (s *RedemptionService) RedeemPoints(ctx context.Context, caller models.Address, points int64, collectibleID uint, sigHex string) (*ledger.Receipt, error) {
	if err := requirePositive("points", points); err != nil {
		return nil, err
	}
	signer, hash, err := checkSignature(sigHex, signature.RedemptionDigest(caller, points, collectibleID))
	if err != nil {
		return nil, err
	}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "redeemPoints", Caller: caller}, func(tx *ledger.Tx) error {
		if err := consumeSignature(ctx, tx, hash, models.SignaturePurposeRedemption, signer, caller); err != nil {
			return err
		}
		verifier, err := repository.NewSignatureRepository(tx.DB).Verifier(ctx)
		if err != nil {
			return err
		}
		if verifier.IsZero() {
			return models.NewSignatureInvalidError(errNoVerifier)
		}
		if signer != verifier {
			return models.NewSignatureInvalidError(fmt.Errorf("signed by %s, not the verifier", signer))
		}

		c, err := loadCollectible(ctx, tx.DB, 0, collectibleID)
		if err != nil {
			return err
		}
		if _, err := loadActiveTribe(ctx, tx.DB, c.TribeID); err != nil {
			return err
		}
		if !c.Active {
			return models.NewValidationError(fmt.Sprintf("collectible %d is not active", collectibleID))
		}
		if c.PointTypeID == 0 {
			return models.NewValidationError(fmt.Sprintf("collectible %d is not redeemable for points", collectibleID))
		}
		if err := repository.NewPointRepository(tx.DB).Debit(ctx, c.TribeID, caller, c.PointTypeID, points, tx.Now); err != nil {
			return err
		}
		if err := mintUnit(ctx, tx, c, caller); err != nil {
			return err
		}
		return tx.Emit("PointsRedeemed", "collectible", collectibleID, ledger.Fields{
			"tribe_id":      c.TribeID,
			"account":       caller,
			"points":        points,
			"point_type_id": c.PointTypeID,
			"signature":     hash,
		})
	})
	if err == nil {
		cache.InvalidateCollectible(ctx, collectibleID)
	}
	return receipt, err
}

// IsSignatureUsed reports whether a signature has been consumed by any operation.
func (s *RedemptionService) IsSignatureUsed(ctx context.Context, sigHex string) (bool, error) {
	sig, err := signature.Parse(sigHex)
	if err != nil {
		return false, models.NewSignatureInvalidError(err)
	}
	hash, err := signature.Hash(sig)
	if err != nil {
		return false, models.NewSignatureInvalidError(err)
	}
	return repository.NewSignatureRepository(s.exec.DB()).IsUsed(ctx, hash)
}
