package domain

import "github.com/google/uuid"

// EventType names a notification delivered to application callbacks.
type EventType string

const (
	EventUserCreated      EventType = "user.created"
	EventUserPromoted     EventType = "user.promoted"
	EventUserDisabled     EventType = "user.disabled"
	EventVoucherUpdated   EventType = "user.voucher_updated"
	EventAliasCreated     EventType = "alias.created"
	EventAliasDeleted     EventType = "alias.deleted"
	EventTransactionMade  EventType = "transaction.created"
	EventRefundCreated    EventType = "refund.created"
	EventRefundUpdated    EventType = "refund.updated"
	EventRefundClosed     EventType = "refund.closed"
	EventPollCreated      EventType = "poll.created"
	EventPollUpdated      EventType = "poll.updated"
	EventPollClosed       EventType = "poll.closed"
	EventCommunismCreated EventType = "communism.created"
	EventCommunismUpdated EventType = "communism.updated"
	EventCommunismClosed  EventType = "communism.closed"
)

// Event is a fire-and-forget notification about a state change.
// Payload carries the identifiers a client needs to refetch the
// affected resource.
type Event struct {
	Type    EventType
	Payload map[string]any
}

func NewEvent(t EventType, id uuid.UUID) Event {
	return Event{Type: t, Payload: map[string]any{"id": id.String()}}
}
