package domain

// Capability is a single permission an actor may hold. Operations declare
// the capability they require instead of comparing role names.
type Capability string

const (
	CapManageTiers  Capability = "manage_tiers"
	CapManageQuotas Capability = "manage_quotas"
	CapCreateEvents Capability = "create_events"
	CapManageGuests Capability = "manage_guests"
	CapCheckIn      Capability = "check_in"
	CapViewAudit    Capability = "view_audit"
	// CapBypassOwnership lets the actor operate on events it does not own
	// and is not assigned to (super-administrator).
	CapBypassOwnership Capability = "bypass_ownership"
)

// Role codes stored on users.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleOrganizer = "organizer"
)

var roleCapabilities = map[string][]Capability{
	RoleAdmin: {
		CapManageTiers, CapManageQuotas, CapCreateEvents,
		CapManageGuests, CapCheckIn, CapViewAudit, CapBypassOwnership,
	},
	RoleManager: {
		CapCreateEvents, CapManageGuests, CapCheckIn, CapViewAudit,
	},
	RoleOrganizer: {
		CapCheckIn,
	},
}

// Actor is a resolved caller: identity plus the capability set derived from
// its role. Ownership scope (which events the actor owns or is assigned to)
// is checked separately against the target.
type Actor struct {
	UserID       string
	Role         string
	capabilities map[Capability]struct{}
}

// NewActor resolves the capability set for the given role. Unknown roles
// yield an actor with no capabilities.
func NewActor(userID, role string) *Actor {
	caps := make(map[Capability]struct{})
	for _, c := range roleCapabilities[role] {
		caps[c] = struct{}{}
	}
	return &Actor{UserID: userID, Role: role, capabilities: caps}
}

// Can reports whether the actor holds the given capability.
func (a *Actor) Can(c Capability) bool {
	_, ok := a.capabilities[c]
	return ok
}
