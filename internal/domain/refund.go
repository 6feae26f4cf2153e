package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundState is the lifecycle state of a refund request.
// Active is the only state that accepts votes; the other three are terminal.
type RefundState string

const (
	RefundStateActive    RefundState = "ACTIVE"
	RefundStateAccepted  RefundState = "ACCEPTED"
	RefundStateDeclined  RefundState = "DECLINED"
	RefundStateCancelled RefundState = "CANCELLED"
)

func (s RefundState) String() string { return string(s) }

func (s RefundState) IsValid() bool {
	switch s {
	case RefundStateActive, RefundStateAccepted, RefundStateDeclined, RefundStateCancelled:
		return true
	}
	return false
}

// IsTerminal returns true once the refund can no longer change.
func (s RefundState) IsTerminal() bool {
	return s != RefundStateActive
}

// Refund is a voted request for the community account to pay out to an
// internal user. TransactionID is set only when the refund is accepted.
type Refund struct {
	ID            uuid.UUID
	CreatorID     uuid.UUID
	Amount        int64
	Reason        string
	State         RefundState
	TransactionID *uuid.UUID
	Votes         []Vote
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
