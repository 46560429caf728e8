package library

import "sync"

// Capability tags one affordance a screen may expose. The original UI
// re-derived ad-hoc role flags on every screen; this table is the
// single place role-to-affordance mapping lives.
type Capability string

const (
	CapAddBook      Capability = "add_book"
	CapUpdateCopies Capability = "update_copies"
	CapManageBooks  Capability = "manage_books"

	CapBorrow   Capability = "borrow"
	CapReturn   Capability = "return"
	CapReserve  Capability = "reserve"
	CapWithdraw Capability = "withdraw"

	CapViewBorrowed     Capability = "view_borrowed"
	CapViewReserved     Capability = "view_reserved"
	CapViewTransactions Capability = "view_transactions"
	CapPayFee           Capability = "pay_fee"

	CapViewRequests     Capability = "view_requests"
	CapApproveLibrarian Capability = "approve_librarian"

	CapUpgradeMembership Capability = "upgrade_membership"
	CapEditProfile       Capability = "edit_profile"
)

var capabilityRoles = map[Capability][]Role{
	CapAddBook:      {RoleAdmin, RoleLibrarian},
	CapUpdateCopies: {RoleAdmin, RoleLibrarian},
	CapManageBooks:  {RoleAdmin, RoleLibrarian},

	CapBorrow:   {RoleMember},
	CapReturn:   {RoleMember},
	CapReserve:  {RoleMember},
	CapWithdraw: {RoleMember},

	CapViewBorrowed:     {RoleMember},
	CapViewReserved:     {RoleMember},
	CapViewTransactions: {RoleMember},
	CapPayFee:           {RoleMember},

	CapViewRequests:     {RoleAdmin},
	CapApproveLibrarian: {RoleAdmin},

	CapUpgradeMembership: {RoleGuest},
	CapEditProfile:       {RoleAdmin, RoleLibrarian, RoleMember, RoleGuest},
}

// Allowed reports whether role may use cap. RoleUnset is allowed
// nothing, which covers both logged-out sessions and the window where
// authentication succeeded but the role has not resolved yet.
func Allowed(role Role, cap Capability) bool {
	if role == RoleUnset {
		return false
	}
	for _, r := range capabilityRoles[cap] {
		if r == role {
			return true
		}
	}
	return false
}

// Gate derives a screen's visibility flags from the session role. It
// stays subscribed to the role channel so flags are recomputed on every
// role change rather than read from a stale snapshot.
type Gate struct {
	mu      sync.Mutex
	caps    []Capability
	visible map[Capability]bool
	cancel  func()
}

// NewGate binds the given capabilities to the session. Flags are
// populated immediately from the current role (replay-latest) and
// tracked until Close.
func (s *Session) NewGate(caps ...Capability) *Gate {
	g := &Gate{
		caps:    caps,
		visible: make(map[Capability]bool, len(caps)),
	}
	g.cancel = s.SubscribeRole(func(role Role) {
		g.mu.Lock()
		defer g.mu.Unlock()
		for _, c := range g.caps {
			g.visible[c] = Allowed(role, c)
		}
	})
	return g
}

// Visible reports whether the affordance for cap should be shown.
// Capabilities the gate was not built with are never visible.
func (g *Gate) Visible(cap Capability) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible[cap]
}

// Close unsubscribes the gate from role updates.
func (g *Gate) Close() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
