// Package identity derives the scoping key that isolates one shopper's cached
// state from another's.
package identity

// Kind distinguishes authenticated principals from anonymous guests.
type Kind int

const (
	KindGuest Kind = iota
	KindAuthenticated
)

// Scope is the isolation boundary for cached state. Two distinct identities
// never share a scope; switching identity never merges or leaks prior state.
type Scope string

// GuestScope is the fixed sentinel scope shared by all anonymous sessions on
// one device.
const GuestScope Scope = "guest"

// Identity is the current caller: an authenticated principal or a guest.
type Identity struct {
	ID   string
	Kind Kind
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{Kind: KindGuest}
}

// Authenticated returns an identity scoped 1:1 to the given principal id.
// Principal ids are issued by the identity provider as UUIDs and cannot
// collide with the guest sentinel.
func Authenticated(id string) Identity {
	return Identity{ID: id, Kind: KindAuthenticated}
}

// Scope resolves the caller's scoping key. Pure, never fails: guests and
// identities without a principal id map to GuestScope, everyone else to their
// principal id.
func (i Identity) Scope() Scope {
	if i.Kind != KindAuthenticated || i.ID == "" {
		return GuestScope
	}
	return Scope(i.ID)
}

// IsGuest reports whether the identity resolves to the guest scope.
func (i Identity) IsGuest() bool {
	return i.Scope() == GuestScope
}
