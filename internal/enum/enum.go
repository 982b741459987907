package enum

import "fmt"

// ── Roles (CHECK constrained in DB as user_role) ──

// Role is the closed set of staff roles carried in access tokens.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
	RoleKitchen Role = "KITCHEN"
)

// ParseRole maps a stored or claimed role string to a Role.
// Anything outside the closed set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCashier:
		return RoleCashier, nil
	case RoleKitchen:
		return RoleKitchen, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ── Actors that may drive a status transition ──

// Actor identifies who requested a transition. Staff actors mirror Role;
// ActorSystem is used for automatic coupling (payment -> order) and sweeps;
// ActorCustomer is used for session-scoped customer actions.
type Actor string

const (
	ActorSystem   Actor = "SYSTEM"
	ActorCustomer Actor = "CUSTOMER"
	ActorAdmin    Actor = Actor(RoleAdmin)
	ActorCashier  Actor = Actor(RoleCashier)
	ActorKitchen  Actor = Actor(RoleKitchen)
)

// ActorForRole converts an authenticated role into a transition actor.
func ActorForRole(r Role) Actor {
	switch r {
	case RoleAdmin:
		return ActorAdmin
	case RoleCashier:
		return ActorCashier
	case RoleKitchen:
		return ActorKitchen
	}
	panic(fmt.Sprintf("enum: unhandled role %q", r))
}

// ── Configurable labels (no DB constraint) ──

// CategoryDrink is the menu category whose items accept a drink type.
const CategoryDrink = "Minuman"

const (
	DrinkTypeIced = "Iced"
	DrinkTypeHot  = "Hot"
)

// ── Live feed channels ──

const (
	ChannelKitchen = "kitchen"
	ChannelCashier = "cashier"
)

// ChannelAllowed reports whether a role may subscribe to a live channel.
func ChannelAllowed(r Role, channel string) bool {
	switch r {
	case RoleAdmin:
		return channel == ChannelKitchen || channel == ChannelCashier
	case RoleCashier:
		return channel == ChannelCashier
	case RoleKitchen:
		return channel == ChannelKitchen
	}
	return false
}
