package service

import (
	"context"

	"ibetu/internal/domain"
)

type WalletStore interface {
	AdjustWalletBalance(ctx context.Context, userID string, deltaCents int64) (int64, error)
}

// WalletService moves the mock balance. There is no payment processor;
// deposits and withdrawals just shift the stored number.
type WalletService struct {
	Users WalletStore
}

func (s *WalletService) Deposit(ctx context.Context, userID string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, domain.NewValidationError(map[string]string{"amount_cents": "must be positive"})
	}
	return s.Users.AdjustWalletBalance(ctx, userID, amountCents)
}

func (s *WalletService) Withdraw(ctx context.Context, userID string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, domain.NewValidationError(map[string]string{"amount_cents": "must be positive"})
	}
	return s.Users.AdjustWalletBalance(ctx, userID, -amountCents)
}
