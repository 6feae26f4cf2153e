package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommunismState is the lifecycle state of a cost-splitting event.
type CommunismState string

const (
	CommunismStateActive    CommunismState = "ACTIVE"
	CommunismStateSettled   CommunismState = "SETTLED"
	CommunismStateCancelled CommunismState = "CANCELLED"
)

func (s CommunismState) String() string { return string(s) }

func (s CommunismState) IsValid() bool {
	switch s {
	case CommunismStateActive, CommunismStateSettled, CommunismStateCancelled:
		return true
	}
	return false
}

func (s CommunismState) IsTerminal() bool {
	return s != CommunismStateActive
}

// CommunismParticipant is one member of a communism with a share
// weight. Quantity 0 means the user has fully left the event.
type CommunismParticipant struct {
	UserID   uuid.UUID
	Quantity int64
}

// Communism is an open cost-splitting event. The creator fronts the
// total amount; on settlement every participant pays
// floor(amount/total_shares) per share to the creator.
type Communism struct {
	ID           uuid.UUID
	CreatorID    uuid.UUID
	Amount       int64
	Description  string
	State        CommunismState
	Participants []CommunismParticipant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalShares sums the participant quantities, including the creator's
// own share if present.
func (c *Communism) TotalShares() int64 {
	var n int64
	for _, p := range c.Participants {
		n += p.Quantity
	}
	return n
}

// ParticipantQuantity returns the share count for the given user, or 0
// if they are not participating.
func (c *Communism) ParticipantQuantity(userID uuid.UUID) int64 {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p.Quantity
		}
	}
	return 0
}
