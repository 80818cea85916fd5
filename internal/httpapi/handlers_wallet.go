package httpapi

import (
	"context"
	"net/http"

	"ibetu/internal/domain"
)

type walletRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type walletResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

func (a *api) handleWalletGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	WriteJSON(w, http.StatusOK, walletResponse{BalanceCents: u.WalletBalanceCents})
}

func (a *api) handleWalletDeposit(w http.ResponseWriter, r *http.Request) {
	a.walletAction(w, r, a.walletSvc.Deposit)
}

func (a *api) handleWalletWithdraw(w http.ResponseWriter, r *http.Request) {
	a.walletAction(w, r, a.walletSvc.Withdraw)
}

func (a *api) walletAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID string, amountCents int64) (int64, error)) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req walletRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	balance, err := fn(r.Context(), u.ID, req.AmountCents)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, walletResponse{BalanceCents: balance})
}
