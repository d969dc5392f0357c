package domain

import "strings"

// OwnerKey partitions persisted carts: one per authenticated identity plus one shared guest cart.
type OwnerKey string

const (
	GuestOwnerKey  OwnerKey = "guest"
	identityPrefix          = "identity:"
)

// Identity is what the identity provider reports for the signed-in user.
type Identity struct {
	Identifier      string `json:"identifier"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// OwnerKeyFor derives the owner key of id. A nil or unauthenticated identity maps to the guest cart.
func OwnerKeyFor(id *Identity) OwnerKey {
	if id == nil || !id.IsAuthenticated || id.Identifier == "" {
		return GuestOwnerKey
	}
	return OwnerKey(identityPrefix + id.Identifier)
}

func (k OwnerKey) IsGuest() bool {
	return k == GuestOwnerKey
}

// Identifier returns the identity part of the key, or "" for the guest key.
func (k OwnerKey) Identifier() string {
	if k.IsGuest() {
		return ""
	}
	return strings.TrimPrefix(string(k), identityPrefix)
}

func (k OwnerKey) String() string {
	return string(k)
}
