// Package voting implements the ballot arithmetic shared by the refund
// and membership workflows. It is pure: persistence and permission
// checks stay with the calling workflow.
package voting

import (
	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// Outcome is the result of evaluating a ballot after a vote.
type Outcome string

const (
	OutcomePending  Outcome = "PENDING"
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeDeclined Outcome = "DECLINED"
)

// Engine evaluates ballots against a symmetric threshold. A ballot is
// accepted when the tally (approvals minus disapprovals) reaches
// +delta and declined when it reaches -delta.
type Engine struct {
	delta int
}

// NewEngine creates an engine with the given threshold. delta must be
// at least 1; configuration validation enforces this upstream.
func NewEngine(delta int) Engine {
	return Engine{delta: delta}
}

// Cast records a vote and evaluates the ballot. A repeat vote by the
// same voter replaces the earlier one, so each voter holds at most one
// live vote. The returned slice is a copy; the input is not modified.
func (e Engine) Cast(votes []domain.Vote, voterID uuid.UUID, approve bool) ([]domain.Vote, Outcome) {
	next := make([]domain.Vote, 0, len(votes)+1)
	replaced := false
	for _, v := range votes {
		if v.VoterID == voterID {
			v.Approve = approve
			replaced = true
		}
		next = append(next, v)
	}
	if !replaced {
		next = append(next, domain.Vote{VoterID: voterID, Approve: approve})
	}

	return next, e.Evaluate(next)
}

// Retract removes a voter's vote if present. The second return value
// reports whether a vote was removed.
func (e Engine) Retract(votes []domain.Vote, voterID uuid.UUID) ([]domain.Vote, bool) {
	next := make([]domain.Vote, 0, len(votes))
	removed := false
	for _, v := range votes {
		if v.VoterID == voterID {
			removed = true
			continue
		}
		next = append(next, v)
	}
	return next, removed
}

// Evaluate computes the outcome for the current vote set. The tally is
// always recomputed from the live votes, never accumulated.
func (e Engine) Evaluate(votes []domain.Vote) Outcome {
	tally := domain.Tally(votes)
	switch {
	case tally >= e.delta:
		return OutcomeAccepted
	case tally <= -e.delta:
		return OutcomeDeclined
	default:
		return OutcomePending
	}
}
