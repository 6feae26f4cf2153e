package domain

import (
	"time"

	"github.com/google/uuid"
)

// Consumable is a purchasable good (drink, snack) with a fixed unit
// price. Buying one transfers price*quantity from the buyer to the
// community account.
type Consumable struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       int64
	Symbol      string
	Stock       int64
	Messages    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
