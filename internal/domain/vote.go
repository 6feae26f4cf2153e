package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a single ballot on a refund or membership poll.
// A voter holds at most one live vote per poll; casting again replaces it.
type Vote struct {
	VoterID   uuid.UUID
	Approve   bool
	CreatedAt time.Time
}

// Tally returns the signed sum of a vote set: +1 per approval, -1 per
// rejection. It is recomputed from scratch so it is always consistent
// with replace-on-recast and retraction.
func Tally(votes []Vote) int {
	total := 0
	for _, v := range votes {
		if v.Approve {
			total++
		} else {
			total--
		}
	}
	return total
}
