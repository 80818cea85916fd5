package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ibetu/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const betColumns = `id, creator_id, opponent_id, title, description, amount_cents,
	verification_method, status, outcome, winner_id,
	creator_approved, opponent_approved, deadline,
	created_at, accepted_at, resolved_at`

type BetsStore struct {
	pool *pgxpool.Pool
}

func NewBetsStore(pool *pgxpool.Pool) *BetsStore {
	return &BetsStore{pool: pool}
}

func scanBet(row rowScanner) (domain.Bet, error) {
	var (
		b          domain.Bet
		idUUID     pgtype.UUID
		creatorUU  pgtype.UUID
		opponentUU pgtype.UUID
		winnerUU   pgtype.UUID
		acceptedTS pgtype.Timestamptz
		resolvedTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&creatorUU,
		&opponentUU,
		&b.Title,
		&b.Description,
		&b.AmountCents,
		&b.VerificationMethod,
		&b.Status,
		&b.Outcome,
		&winnerUU,
		&b.CreatorApproved,
		&b.OpponentApproved,
		&b.Deadline,
		&b.CreatedAt,
		&acceptedTS,
		&resolvedTS,
	)
	if err != nil {
		return domain.Bet{}, err
	}
	b.ID = uuidOrEmpty(idUUID)
	b.CreatorID = uuidOrEmpty(creatorUU)
	b.OpponentID = uuidOrEmpty(opponentUU)
	b.WinnerID = uuidOrEmpty(winnerUU)
	b.AcceptedAt = timestamptzPtr(acceptedTS)
	b.ResolvedAt = timestamptzPtr(resolvedTS)
	return b, nil
}

func (s *BetsStore) CreateBet(ctx context.Context, d domain.BetDraft) (domain.Bet, error) {
	q := `
		INSERT INTO bets (creator_id, opponent_id, title, description, amount_cents, verification_method, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + betColumns

	b, err := scanBet(s.pool.QueryRow(ctx, q,
		d.CreatorID, d.OpponentID, d.Title, d.Description, d.AmountCents, d.VerificationMethod, d.Deadline))
	if err != nil {
		return domain.Bet{}, fmt.Errorf("create bet: %w", err)
	}
	return b, nil
}

// GetBetForUser returns the bet only when the caller is a participant.
// Anyone else gets the same ErrNotFound as a missing row.
func (s *BetsStore) GetBetForUser(ctx context.Context, userID, betID string) (domain.Bet, error) {
	q := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE id = $1 AND (creator_id = $2 OR opponent_id = $2)
	`

	b, err := scanBet(s.pool.QueryRow(ctx, q, betID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("get bet: %w", err)
	}
	return b, nil
}

func (s *BetsStore) ListBetsForUser(ctx context.Context, userID string, status domain.BetStatus, limit int) ([]domain.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	q := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE (creator_id = $1 OR opponent_id = $1)
	`
	args := []any{userID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	return out, nil
}

// AcceptBet activates a pending bet. The WHERE clause folds ownership and
// state into one predicate so a wrong caller and an already-processed bet
// are indistinguishable (ErrNotFound either way).
func (s *BetsStore) AcceptBet(ctx context.Context, betID, opponentID string, when time.Time) (domain.Bet, error) {
	q := `
		UPDATE bets
		SET status = 'active', accepted_at = $3
		WHERE id = $1 AND opponent_id = $2 AND status = 'pending'
		RETURNING ` + betColumns

	b, err := scanBet(s.pool.QueryRow(ctx, q, betID, opponentID, when))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("accept bet: %w", err)
	}
	return b, nil
}

func (s *BetsStore) DeclineBet(ctx context.Context, betID, opponentID string) (domain.Bet, error) {
	q := `
		UPDATE bets
		SET status = 'declined'
		WHERE id = $1 AND opponent_id = $2 AND status = 'pending'
		RETURNING ` + betColumns

	b, err := scanBet(s.pool.QueryRow(ctx, q, betID, opponentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("decline bet: %w", err)
	}
	return b, nil
}

func (s *BetsStore) CancelBet(ctx context.Context, betID, creatorID string) (domain.Bet, error) {
	q := `
		UPDATE bets
		SET status = 'expired'
		WHERE id = $1 AND creator_id = $2 AND status = 'pending'
		RETURNING ` + betColumns

	b, err := scanBet(s.pool.QueryRow(ctx, q, betID, creatorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("cancel bet: %w", err)
	}
	return b, nil
}

// ApproveResult records the caller's approval of winnerID on an active
// bet, and settles the bet when that approval is decisive. The whole
// sequence runs in one transaction with the row locked, so bet status,
// user counters and wallet balances always move together.
func (s *BetsStore) ApproveResult(ctx context.Context, betID, callerID, winnerID string, when time.Time) (domain.Bet, domain.ApprovalResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Bet{}, "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE id = $1 AND (creator_id = $2 OR opponent_id = $2) AND status = 'active'
		FOR UPDATE
	`
	b, err := scanBet(tx.QueryRow(ctx, q, betID, callerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, "", domain.ErrNotFound
		}
		return domain.Bet{}, "", fmt.Errorf("lock bet: %w", err)
	}

	isCreator := callerID == b.CreatorID
	otherApproved := b.OpponentApproved
	if !isCreator {
		otherApproved = b.CreatorApproved
	}

	if otherApproved && b.WinnerID != winnerID {
		// The two parties named different winners. Instead of leaving the
		// bet active forever with contradictory approvals, it lands in an
		// explicit disputed state.
		updated, err := s.markDisputed(ctx, tx, b.ID, isCreator, when)
		if err != nil {
			return domain.Bet{}, "", err
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.Bet{}, "", fmt.Errorf("commit tx: %w", err)
		}
		return updated, domain.ApprovalDisputed, nil
	}

	flagCol := "creator_approved"
	if !isCreator {
		flagCol = "opponent_approved"
	}
	setFlag := `
		UPDATE bets
		SET ` + flagCol + ` = true, winner_id = $2
		WHERE id = $1
		RETURNING ` + betColumns
	b, err = scanBet(tx.QueryRow(ctx, setFlag, b.ID, winnerID))
	if err != nil {
		return domain.Bet{}, "", fmt.Errorf("record approval: %w", err)
	}

	if !(b.CreatorApproved && b.OpponentApproved) {
		if err := tx.Commit(ctx); err != nil {
			return domain.Bet{}, "", fmt.Errorf("commit tx: %w", err)
		}
		return b, domain.ApprovalRecorded, nil
	}

	// Both sides agree: settle.
	outcome := domain.OutcomeLoss
	if b.WinnerID == b.CreatorID {
		outcome = domain.OutcomeWin
	}
	settle := `
		UPDATE bets
		SET status = 'completed', outcome = $2, resolved_at = $3
		WHERE id = $1
		RETURNING ` + betColumns
	b, err = scanBet(tx.QueryRow(ctx, settle, b.ID, outcome, when))
	if err != nil {
		return domain.Bet{}, "", fmt.Errorf("settle bet: %w", err)
	}

	loserID := b.Opponent(b.WinnerID)
	const bumpWinner = `
		UPDATE users
		SET bets_won = bets_won + 1, total_bets = total_bets + 1,
		    wallet_balance_cents = wallet_balance_cents + $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, bumpWinner, b.WinnerID, b.AmountCents); err != nil {
		return domain.Bet{}, "", fmt.Errorf("credit winner: %w", err)
	}
	const bumpLoser = `
		UPDATE users
		SET bets_lost = bets_lost + 1, total_bets = total_bets + 1,
		    wallet_balance_cents = wallet_balance_cents - $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, bumpLoser, loserID, b.AmountCents); err != nil {
		return domain.Bet{}, "", fmt.Errorf("debit loser: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Bet{}, "", fmt.Errorf("commit tx: %w", err)
	}
	return b, domain.ApprovalResolved, nil
}

func (s *BetsStore) markDisputed(ctx context.Context, tx pgx.Tx, betID string, callerIsCreator bool, when time.Time) (domain.Bet, error) {
	flagCol := "creator_approved"
	if !callerIsCreator {
		flagCol = "opponent_approved"
	}
	q := `
		UPDATE bets
		SET status = 'disputed', outcome = 'disputed', ` + flagCol + ` = true, resolved_at = $2
		WHERE id = $1
		RETURNING ` + betColumns
	b, err := scanBet(tx.QueryRow(ctx, q, betID, when))
	if err != nil {
		return domain.Bet{}, fmt.Errorf("mark disputed: %w", err)
	}
	return b, nil
}

// RecentOutcomes returns outcomes of the user's most recently resolved
// completed bets, most recent first, from the user's point of view.
func (s *BetsStore) RecentOutcomes(ctx context.Context, userID string, limit int) ([]domain.BetOutcome, error) {
	if limit <= 0 {
		limit = domain.StreakLookback
	}
	const q = `
		SELECT CASE WHEN winner_id = $1 THEN 'win' ELSE 'loss' END
		FROM bets
		WHERE status = 'completed' AND (creator_id = $1 OR opponent_id = $1)
		ORDER BY resolved_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.BetOutcome
	for rows.Next() {
		var o domain.BetOutcome
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent outcomes: %w", err)
	}
	return out, nil
}

func (s *BetsStore) CountDistinctOpponents(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT COUNT(DISTINCT CASE WHEN creator_id = $1 THEN opponent_id ELSE creator_id END)::int
		FROM bets
		WHERE status = 'completed' AND (creator_id = $1 OR opponent_id = $1)
	`
	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count distinct opponents: %w", err)
	}
	return n, nil
}

// MonthRecord counts the user's completed bets resolved within [start,
// end) and how many of them the user won.
func (s *BetsStore) MonthRecord(ctx context.Context, userID string, start, end time.Time) (total, wins int, err error) {
	const q = `
		SELECT COUNT(*)::int,
		       COUNT(*) FILTER (WHERE winner_id = $1)::int
		FROM bets
		WHERE status = 'completed'
		  AND (creator_id = $1 OR opponent_id = $1)
		  AND resolved_at >= $2 AND resolved_at < $3
	`
	if err := s.pool.QueryRow(ctx, q, userID, start, end).Scan(&total, &wins); err != nil {
		return 0, 0, fmt.Errorf("month record: %w", err)
	}
	return total, wins, nil
}
