package domain

import (
	"time"

	"github.com/google/uuid"
)

// Application is a registered frontend (bot, web client) that talks to
// the API on behalf of its users. Requests are authenticated with the
// application's shared secret.
type Application struct {
	ID        uuid.UUID
	Name      string
	Secret    string
	CreatedAt time.Time
}

// Callback is an HTTP endpoint an application registers to receive
// event notifications. Username and Password are optional basic auth
// credentials for the outgoing request.
type Callback struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	URI           string
	Username      *string
	Password      *string
	CreatedAt     time.Time
}
