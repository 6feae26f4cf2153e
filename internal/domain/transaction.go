package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one immutable ledger entry. Rows are append-only:
// they are created by the transfer engine and never updated or deleted.
type Transaction struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     int64
	Reason     string
	CreatedAt  time.Time
}
