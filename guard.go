package identity

// DenyReason explains why a guard decision denied access.
type DenyReason string

const (
	// DenyUnauthenticated means no identity was resolved for the request.
	DenyUnauthenticated DenyReason = "unauthenticated"
	// DenyInsufficientRole means the identity's role is not in the allowed set.
	DenyInsufficientRole DenyReason = "insufficient_role"
)

// Decision is the outcome of an authorization check. The guard makes no
// HTTP-status decisions; mapping reasons onto 401/403 belongs to the
// boundary layer so the guard stays reusable and independently testable.
type Decision struct {
	allowed bool
	reason  DenyReason
}

// Authorized reports whether access was granted.
func (d Decision) Authorized() bool {
	return d.allowed
}

// Reason returns the denial reason; empty when authorized.
func (d Decision) Reason() DenyReason {
	if d.allowed {
		return ""
	}
	return d.reason
}

// RequireRole turns a resolved identity (or its absence) plus a required
// role set into an allow/deny decision. A nil identity or an inactive one is
// unauthenticated; an empty allowed set admits any authenticated identity.
func RequireRole(identity Identity, allowed ...UserRole) Decision {
	if identity == nil || !identity.Active() {
		return Decision{reason: DenyUnauthenticated}
	}

	if len(allowed) == 0 {
		return Decision{allowed: true}
	}

	role := identity.Role()
	for _, candidate := range allowed {
		if role == candidate {
			return Decision{allowed: true}
		}
	}

	return Decision{reason: DenyInsufficientRole}
}

// RequireMinimumRole grants access when the identity's role is at least
// minRole in the platform hierarchy.
func RequireMinimumRole(identity Identity, minRole UserRole) Decision {
	if identity == nil || !identity.Active() {
		return Decision{reason: DenyUnauthenticated}
	}

	if RoleIsAtLeast(identity.Role(), minRole) {
		return Decision{allowed: true}
	}

	return Decision{reason: DenyInsufficientRole}
}
