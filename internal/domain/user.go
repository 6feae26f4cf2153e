package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a ledger account shared by all client applications.
// Balance is kept in the smallest currency unit and may go negative;
// external users cover their debt through a voucher (sponsor).
type User struct {
	ID        uuid.UUID
	Name      *string
	Balance   int64
	Active    bool
	Internal  bool
	VoucherID *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVouched returns true if an internal user sponsors this account.
func (u *User) IsVouched() bool {
	return u.VoucherID != nil
}

// MayStartCommunism reports whether the user can open a cost-splitting
// event: full members always, guests only while sponsored.
func (u *User) MayStartCommunism() bool {
	return u.Internal || u.IsVouched()
}

// Alias binds an application-scoped user identifier to a ledger account.
// AppUserID is unique per application; every user keeps at least one alias.
type Alias struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ApplicationID uuid.UUID
	AppUserID     string
	CreatedAt     time.Time
}
