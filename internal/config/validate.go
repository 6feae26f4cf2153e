package config

import (
	"fmt"

	"github.com/google/uuid"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Votes.RefundDelta < 1 {
		return fmt.Errorf("votes.refund_delta must be >= 1 (got %d)", c.Votes.RefundDelta)
	}
	if c.Votes.PromoteDelta < 1 {
		return fmt.Errorf("votes.promote_delta must be >= 1 (got %d)", c.Votes.PromoteDelta)
	}

	if _, err := uuid.Parse(c.Ledger.CommunityUserID); err != nil {
		return fmt.Errorf("ledger.community_user_id: %w", err)
	}
	if c.Ledger.MaxTransactionAmount <= 0 {
		return fmt.Errorf("ledger.max_transaction_amount must be > 0 (got %d)", c.Ledger.MaxTransactionAmount)
	}

	if c.Callback.Workers < 1 {
		return fmt.Errorf("callback.workers must be >= 1 (got %d)", c.Callback.Workers)
	}
	if c.Callback.QueueSize < 1 {
		return fmt.Errorf("callback.queue_size must be >= 1 (got %d)", c.Callback.QueueSize)
	}

	if c.Server.RateLimit < 1 {
		return fmt.Errorf("server.rate_limit must be >= 1 (got %d)", c.Server.RateLimit)
	}

	return nil
}

// CommunityID returns the parsed community account id. Validate must
// have succeeded first.
func (c *LedgerConfig) CommunityID() uuid.UUID {
	return uuid.MustParse(c.CommunityUserID)
}
