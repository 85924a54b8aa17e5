package permissionchecker

import (
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
)

// RequiredRole names the minimum privilege an operation needs.
type RequiredRole int

const (
	REQUIRE_ANY RequiredRole = iota
	REQUIRE_ACCOUNT
	REQUIRE_ADMIN
	REQUIRE_SUPER_ADMIN
)

func IsAdminRole(role string) bool {
	return role == userTypes.ROLE_ADMIN || role == userTypes.ROLE_SUPER_ADMIN
}

// IsAuthorized checks a caller role against the required privilege. Guests never satisfy
// anything beyond REQUIRE_ANY.
func IsAuthorized(callerRole string, required RequiredRole) bool {
	switch required {
	case REQUIRE_ANY:
		return true
	case REQUIRE_ACCOUNT:
		return callerRole != "" && callerRole != userTypes.ROLE_GUEST && userTypes.IsValidRole(callerRole)
	case REQUIRE_ADMIN:
		return IsAdminRole(callerRole)
	case REQUIRE_SUPER_ADMIN:
		return callerRole == userTypes.ROLE_SUPER_ADMIN
	}
	return false
}

// IsOwnerOrAdmin allows admins on every resource and everyone else only on their own.
func IsOwnerOrAdmin(callerID string, callerRole string, resourceOwnerID string) bool {
	if IsAdminRole(callerRole) {
		return true
	}
	return callerID != "" && callerRole != userTypes.ROLE_GUEST && callerID == resourceOwnerID
}
