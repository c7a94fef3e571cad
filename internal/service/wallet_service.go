package service

import (
	"context"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
)

// WalletService moves native value between accounts. Minting is the bridge-in path and
// belongs to super-admins.
type WalletService struct {
	exec *ledger.Executor
}

func NewWalletService(exec *ledger.Executor) *WalletService {
	return &WalletService{exec: exec}
}

// Mint credits amount of new value to account.
func (s *WalletService) Mint(ctx context.Context, caller, account models.Address, amount int64) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "mint", Caller: caller}, func(tx *ledger.Tx) error {
		if err := requireSuperAdmin(ctx, tx.DB, caller); err != nil {
			return err
		}
		if err := ledger.Credit(tx.DB, account, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("ValueMinted", "wallet", account, ledger.Fields{"account": account, "amount": amount})
	})
}

// Transfer sends amount from the caller's wallet to to.
func (s *WalletService) Transfer(ctx context.Context, caller, to models.Address, amount int64) (*ledger.Receipt, error) {
	if err := requireAccount("recipient", to); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	if to == caller {
		return nil, models.NewValidationError("cannot transfer to yourself")
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "transfer", Caller: caller, Value: amount, Payable: true}, func(tx *ledger.Tx) error {
		return tx.Pay(to, amount, "transfer")
	})
}

func (s *WalletService) Balance(ctx context.Context, account models.Address) (int64, error) {
	return ledger.Balance(s.exec.DB().WithContext(ctx), account)
}
