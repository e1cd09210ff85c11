package types

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerRef identifies who a cart or order belongs to: a registered user or
// an anonymous guest session. Exactly one of the two fields is set. The rest
// of the system treats the ref as an opaque, equality-comparable key.
type OwnerRef struct {
	UserID     *uuid.UUID
	GuestToken *string
}

// UserOwner builds an OwnerRef for a registered user.
func UserOwner(userID uuid.UUID) OwnerRef {
	return OwnerRef{UserID: &userID}
}

// GuestOwner builds an OwnerRef for a guest session token.
func GuestOwner(token string) OwnerRef {
	return OwnerRef{GuestToken: &token}
}

// Valid reports whether exactly one identity is set.
func (o OwnerRef) Valid() bool {
	if o.UserID != nil && o.GuestToken != nil {
		return false
	}
	if o.UserID == nil && (o.GuestToken == nil || *o.GuestToken == "") {
		return false
	}
	return true
}

// IsGuest reports whether the ref carries a guest token.
func (o OwnerRef) IsGuest() bool {
	return o.GuestToken != nil
}

// Key returns the canonical equality key ("user:<id>" or "guest:<token>").
func (o OwnerRef) Key() string {
	switch {
	case o.UserID != nil:
		return fmt.Sprintf("user:%s", o.UserID)
	case o.GuestToken != nil:
		return fmt.Sprintf("guest:%s", *o.GuestToken)
	default:
		return ""
	}
}

// Equals compares two refs by their canonical key.
func (o OwnerRef) Equals(other OwnerRef) bool {
	return o.Valid() && other.Valid() && o.Key() == other.Key()
}
