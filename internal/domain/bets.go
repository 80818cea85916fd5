package domain

import "time"

type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"
	BetStatusActive    BetStatus = "active"
	BetStatusCompleted BetStatus = "completed"
	BetStatusDeclined  BetStatus = "declined"
	BetStatusExpired   BetStatus = "expired"
	BetStatusDisputed  BetStatus = "disputed"

	// BetStatusDeadlinePassed is a display-only projection, never stored.
	// See DisplayStatus.
	BetStatusDeadlinePassed BetStatus = "deadline_passed"
)

type BetOutcome string

const (
	OutcomePending  BetOutcome = "pending"
	OutcomeWin      BetOutcome = "win"
	OutcomeLoss     BetOutcome = "loss"
	OutcomeDisputed BetOutcome = "disputed"
)

// ApprovalResult says what a result approval did to the bet: recorded
// one side's vote, settled the bet, or pushed it into dispute.
type ApprovalResult string

const (
	ApprovalRecorded ApprovalResult = "recorded"
	ApprovalResolved ApprovalResult = "resolved"
	ApprovalDisputed ApprovalResult = "disputed"
)

type VerificationMethod string

const (
	VerifyHonor   VerificationMethod = "honor"
	VerifyPhoto   VerificationMethod = "photo"
	VerifyWitness VerificationMethod = "witness"
)

type Bet struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	AmountCents        int64              `json:"amount_cents"`
	CreatorID          string             `json:"creator_id"`
	OpponentID         string             `json:"opponent_id"`
	Status             BetStatus          `json:"status"`
	Outcome            BetOutcome         `json:"outcome"`
	WinnerID           string             `json:"winner_id,omitempty"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	Deadline           time.Time          `json:"deadline"`
	CreatorApproved    bool               `json:"creator_approved"`
	OpponentApproved   bool               `json:"opponent_approved"`
	CreatedAt          time.Time          `json:"created_at"`
	AcceptedAt         *time.Time         `json:"accepted_at,omitempty"`
	ResolvedAt         *time.Time         `json:"resolved_at,omitempty"`
}

// BetDraft is a validated new bet ready to be stored.
type BetDraft struct {
	CreatorID          string
	OpponentID         string
	Title              string
	Description        string
	AmountCents        int64
	VerificationMethod VerificationMethod
	Deadline           time.Time
}

// DisplayStatus returns deadline_passed for a pending or active bet whose
// deadline is behind now, and the stored status otherwise. The projection
// is applied on read paths only; nothing is ever persisted as
// deadline_passed.
func DisplayStatus(status BetStatus, deadline, now time.Time) BetStatus {
	if (status == BetStatusPending || status == BetStatusActive) && now.After(deadline) {
		return BetStatusDeadlinePassed
	}
	return status
}

func (b *Bet) IsParticipant(userID string) bool {
	return b.CreatorID == userID || b.OpponentID == userID
}

// Opponent returns the other party relative to the given participant, or
// "" when the user is not a participant.
func (b *Bet) Opponent(userID string) string {
	switch userID {
	case b.CreatorID:
		return b.OpponentID
	case b.OpponentID:
		return b.CreatorID
	}
	return ""
}

func (b *Bet) DisplayStatus(now time.Time) BetStatus {
	return DisplayStatus(b.Status, b.Deadline, now)
}
