package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ibetu/internal/domain"
	"ibetu/internal/service"
)

type stubBetsStore struct {
	t *testing.T

	createFunc  func(context.Context, domain.BetDraft) (domain.Bet, error)
	getFunc     func(context.Context, string, string) (domain.Bet, error)
	listFunc    func(context.Context, string, domain.BetStatus, int) ([]domain.Bet, error)
	acceptFunc  func(context.Context, string, string, time.Time) (domain.Bet, error)
	approveFunc func(context.Context, string, string, string, time.Time) (domain.Bet, domain.ApprovalResult, error)
}

func (s *stubBetsStore) CreateBet(ctx context.Context, p domain.BetDraft) (domain.Bet, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, p)
	}
	s.t.Fatalf("CreateBet called unexpectedly")
	return domain.Bet{}, context.Canceled
}

func (s *stubBetsStore) GetBetForUser(ctx context.Context, userID, betID string) (domain.Bet, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID, betID)
	}
	s.t.Fatalf("GetBetForUser called unexpectedly")
	return domain.Bet{}, context.Canceled
}

func (s *stubBetsStore) ListBetsForUser(ctx context.Context, userID string, status domain.BetStatus, limit int) ([]domain.Bet, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID, status, limit)
	}
	s.t.Fatalf("ListBetsForUser called unexpectedly")
	return nil, context.Canceled
}

func (s *stubBetsStore) AcceptBet(ctx context.Context, betID, opponentID string, when time.Time) (domain.Bet, error) {
	if s.acceptFunc != nil {
		return s.acceptFunc(ctx, betID, opponentID, when)
	}
	s.t.Fatalf("AcceptBet called unexpectedly")
	return domain.Bet{}, context.Canceled
}

func (s *stubBetsStore) DeclineBet(ctx context.Context, betID, opponentID string) (domain.Bet, error) {
	s.t.Fatalf("DeclineBet called unexpectedly")
	return domain.Bet{}, context.Canceled
}

func (s *stubBetsStore) CancelBet(ctx context.Context, betID, creatorID string) (domain.Bet, error) {
	s.t.Fatalf("CancelBet called unexpectedly")
	return domain.Bet{}, context.Canceled
}

func (s *stubBetsStore) ApproveResult(ctx context.Context, betID, callerID, winnerID string, when time.Time) (domain.Bet, domain.ApprovalResult, error) {
	if s.approveFunc != nil {
		return s.approveFunc(ctx, betID, callerID, winnerID, when)
	}
	s.t.Fatalf("ApproveResult called unexpectedly")
	return domain.Bet{}, "", context.Canceled
}

type allowAllFriends struct{}

func (allowAllFriends) AreFriends(ctx context.Context, a, b string) (bool, error) { return true, nil }

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), authUserKey, domain.User{ID: userID, Username: "u-" + userID})
	return req.WithContext(ctx)
}

func TestBetsCreateValidationFields(t *testing.T) {
	store := &stubBetsStore{t: t}
	api := &api{betSvc: &service.BetService{Bets: store, Friends: allowAllFriends{}}}

	body := `{"opponent_id":"u2","title":"","amount_cents":-5,"deadline":"2020-01-01T00:00:00Z"}`
	req := authedRequest(http.MethodPost, "/v1/bets", body, "u1")
	rr := httptest.NewRecorder()
	api.handleBetsCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
	for _, field := range []string{"title", "amount_cents", "deadline"} {
		if resp.Error.Fields[field] == "" {
			t.Errorf("missing field error for %q in %v", field, resp.Error.Fields)
		}
	}
}

func TestBetsGetNotParticipant(t *testing.T) {
	store := &stubBetsStore{
		t: t,
		getFunc: func(_ context.Context, userID, betID string) (domain.Bet, error) {
			if userID != "u3" || betID != "b1" {
				t.Fatalf("unexpected lookup: %s %s", userID, betID)
			}
			return domain.Bet{}, domain.ErrNotFound
		},
	}
	api := &api{betSvc: &service.BetService{Bets: store}}

	req := authedRequest(http.MethodGet, "/v1/bets/b1", "", "u3")
	req.SetPathValue("id", "b1")
	rr := httptest.NewRecorder()
	api.handleBetsGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestBetsGetProjectsDeadlinePassed(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	store := &stubBetsStore{
		t: t,
		getFunc: func(_ context.Context, userID, betID string) (domain.Bet, error) {
			return domain.Bet{
				ID: "b1", CreatorID: "u1", OpponentID: "u2",
				Status: domain.BetStatusActive, Deadline: past,
			}, nil
		},
	}
	api := &api{betSvc: &service.BetService{Bets: store}}

	req := authedRequest(http.MethodGet, "/v1/bets/b1", "", "u1")
	req.SetPathValue("id", "b1")
	rr := httptest.NewRecorder()
	api.handleBetsGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got struct {
		Status domain.BetStatus `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != domain.BetStatusDeadlinePassed {
		t.Fatalf("status = %q, want deadline_passed", got.Status)
	}
}

func TestBetsApproveResultResolved(t *testing.T) {
	resolvedAt := time.Now()
	active := domain.Bet{ID: "b1", CreatorID: "u1", OpponentID: "u2", Status: domain.BetStatusActive, Deadline: resolvedAt.Add(time.Hour)}
	store := &stubBetsStore{
		t: t,
		getFunc: func(_ context.Context, userID, betID string) (domain.Bet, error) {
			return active, nil
		},
		approveFunc: func(_ context.Context, betID, callerID, winnerID string, _ time.Time) (domain.Bet, domain.ApprovalResult, error) {
			if callerID != "u2" || winnerID != "u1" {
				t.Fatalf("unexpected approval: caller=%s winner=%s", callerID, winnerID)
			}
			done := active
			done.Status = domain.BetStatusCompleted
			done.WinnerID = "u1"
			done.ResolvedAt = &resolvedAt
			return done, domain.ApprovalResolved, nil
		},
	}
	api := &api{betSvc: &service.BetService{Bets: store}}

	req := authedRequest(http.MethodPost, "/v1/bets/b1/result", `{"winner_id":"u1"}`, "u2")
	req.SetPathValue("id", "b1")
	rr := httptest.NewRecorder()
	api.handleBetsApproveResult(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var got struct {
		Bet struct {
			Status   domain.BetStatus `json:"status"`
			WinnerID string           `json:"winner_id"`
		} `json:"bet"`
		Result domain.ApprovalResult `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Result != domain.ApprovalResolved {
		t.Fatalf("result = %q, want resolved", got.Result)
	}
	if got.Bet.Status != domain.BetStatusCompleted || got.Bet.WinnerID != "u1" {
		t.Fatalf("bet = %+v", got.Bet)
	}
}

func TestBetsListPassesStatusFilter(t *testing.T) {
	store := &stubBetsStore{
		t: t,
		listFunc: func(_ context.Context, userID string, status domain.BetStatus, limit int) ([]domain.Bet, error) {
			if status != domain.BetStatusActive {
				t.Fatalf("status filter = %q, want active", status)
			}
			return nil, nil
		},
	}
	api := &api{betSvc: &service.BetService{Bets: store}}

	req := authedRequest(http.MethodGet, "/v1/bets?status=active", "", "u1")
	rr := httptest.NewRecorder()
	api.handleBetsList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
