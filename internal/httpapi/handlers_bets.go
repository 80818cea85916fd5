package httpapi

import (
	"context"
	"net/http"
	"time"

	"ibetu/internal/domain"
	"ibetu/internal/service"
)

// betResponse is a bet as clients see it: the stored status replaced by
// the display projection, so expired-looking bets read deadline_passed
// without anything being written.
type betResponse struct {
	domain.Bet
	Status domain.BetStatus `json:"status"`
}

func betView(b domain.Bet, now time.Time) betResponse {
	return betResponse{Bet: b, Status: b.DisplayStatus(now)}
}

func betViews(bets []domain.Bet, now time.Time) []betResponse {
	out := make([]betResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, betView(b, now))
	}
	return out
}

type createBetRequest struct {
	OpponentID         string    `json:"opponent_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	AmountCents        int64     `json:"amount_cents"`
	VerificationMethod string    `json:"verification_method"`
	Deadline           time.Time `json:"deadline"`
}

func (a *api) handleBetsCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createBetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	bet, err := a.betSvc.CreateBet(r.Context(), u.ID, service.CreateBetParams{
		OpponentID:         req.OpponentID,
		Title:              req.Title,
		Description:        req.Description,
		AmountCents:        req.AmountCents,
		VerificationMethod: domain.VerificationMethod(req.VerificationMethod),
		Deadline:           req.Deadline,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, betView(bet, time.Now()))
}

func (a *api) handleBetsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	status := domain.BetStatus(r.URL.Query().Get("status"))
	limit := parseLimit(r.URL.Query().Get("limit"))

	bets, err := a.betSvc.ListBets(r.Context(), u.ID, status, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, betViews(bets, time.Now()))
}

func (a *api) handleBetsGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	bet, err := a.betSvc.GetBet(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, betView(bet, time.Now()))
}

func (a *api) handleBetsAccept(w http.ResponseWriter, r *http.Request) {
	a.betAction(w, r, a.betSvc.AcceptBet)
}

func (a *api) handleBetsDecline(w http.ResponseWriter, r *http.Request) {
	a.betAction(w, r, a.betSvc.DeclineBet)
}

func (a *api) handleBetsCancel(w http.ResponseWriter, r *http.Request) {
	a.betAction(w, r, a.betSvc.CancelBet)
}

// betAction is the shared accept/decline/cancel shape: caller identity
// plus a bet ID from the path, the updated bet back.
func (a *api) betAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, betID string) (domain.Bet, error)) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	betID := r.PathValue("id")
	if betID == "" {
		WriteDomainError(w, domain.ErrNotFound)
		return
	}

	bet, err := fn(r.Context(), u.ID, betID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, betView(bet, time.Now()))
}

type approveResultRequest struct {
	WinnerID string `json:"winner_id"`
}

type approveResultResponse struct {
	Bet    betResponse           `json:"bet"`
	Result domain.ApprovalResult `json:"result"`
}

func (a *api) handleBetsApproveResult(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req approveResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.WinnerID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"winner_id": "required"}))
		return
	}

	bet, result, err := a.betSvc.ApproveResult(r.Context(), u.ID, r.PathValue("id"), req.WinnerID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, approveResultResponse{
		Bet:    betView(bet, time.Now()),
		Result: result,
	})
}
