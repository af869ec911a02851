package domain

// ActorRole identifies who is attempting a state transition.
// The role is always an explicit parameter into transition checks,
// never ambient state.
type ActorRole string

const (
	RoleClient   ActorRole = "client"
	RoleProvider ActorRole = "provider"
	RoleSystem   ActorRole = "system"
)

// Actor is the identity attempting an operation on a booking
type Actor struct {
	Role   ActorRole
	UserID int64 // 0 for system actors
}

// ClientActor builds a client actor
func ClientActor(userID int64) Actor {
	return Actor{Role: RoleClient, UserID: userID}
}

// ProviderActor builds a provider actor
func ProviderActor(userID int64) Actor {
	return Actor{Role: RoleProvider, UserID: userID}
}

// SystemActor builds the system actor used by the auto-decline sweeper
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

// Owns reports whether the actor is the owner side of the booking:
// the booking's client for client actors, the booking's provider for
// provider actors. System actors own every booking.
func (a Actor) Owns(b *Booking) bool {
	switch a.Role {
	case RoleClient:
		return b.ClientID == a.UserID
	case RoleProvider:
		return b.ProviderID == a.UserID
	case RoleSystem:
		return true
	}
	return false
}
