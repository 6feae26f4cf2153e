package domain

import (
	"time"

	"github.com/google/uuid"
)

// PollState is the lifecycle state of a membership poll.
type PollState string

const (
	PollStateActive   PollState = "ACTIVE"
	PollStateApproved PollState = "APPROVED"
	PollStateRejected PollState = "REJECTED"
)

func (s PollState) String() string { return string(s) }

func (s PollState) IsValid() bool {
	switch s {
	case PollStateActive, PollStateApproved, PollStateRejected:
		return true
	}
	return false
}

// IsTerminal returns true once the poll can no longer change.
func (s PollState) IsTerminal() bool {
	return s != PollStateActive
}

// MembershipPoll tracks the promotion of an external user to full
// membership. Only internal users vote; on approval the creator becomes
// internal and their voucher is discharged.
type MembershipPoll struct {
	ID        uuid.UUID
	CreatorID uuid.UUID
	State     PollState
	Votes     []Vote
	CreatedAt time.Time
	UpdatedAt time.Time
}
