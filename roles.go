package identity

// RoleValidator defines the interface for role-based access control validation
type RoleValidator interface {
	// HasRole checks if the user has a specific role
	HasRole(role string) bool

	// IsAtLeast checks if the user's role is at least the minimum required role
	IsAtLeast(minRole UserRole) bool
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleCreator, RoleUploader, RoleCompany, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanPublishContent checks if this role can publish content to the catalog
func CanPublishContent(r UserRole) bool {
	switch r {
	case RoleCreator, RoleUploader, RoleCompany, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanManagePlatform checks if this role can access admin surfaces
func CanManagePlatform(r UserRole) bool {
	return r == RoleAdmin
}

var roleHierarchy = map[UserRole]int{
	RoleUser:     0,
	RoleCreator:  1,
	RoleUploader: 2,
	RoleCompany:  3,
	RoleAdmin:    4,
}

// RoleIsAtLeast checks if role meets the minimum required level. Unknown
// roles never satisfy any minimum.
func RoleIsAtLeast(role, minRole UserRole) bool {
	level, ok := roleHierarchy[role]
	if !ok {
		return false
	}

	minLevel, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}

	return level >= minLevel
}
