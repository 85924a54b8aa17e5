package permissionchecker

import (
	"testing"

	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
)

func TestIsAuthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		role     string
		required RequiredRole
		want     bool
	}{
		{"user on admin route", userTypes.ROLE_USER, REQUIRE_ADMIN, false},
		{"guest on admin route", userTypes.ROLE_GUEST, REQUIRE_ADMIN, false},
		{"admin on admin route", userTypes.ROLE_ADMIN, REQUIRE_ADMIN, true},
		{"super admin on admin route", userTypes.ROLE_SUPER_ADMIN, REQUIRE_ADMIN, true},
		{"admin on super admin route", userTypes.ROLE_ADMIN, REQUIRE_SUPER_ADMIN, false},
		{"user on super admin route", userTypes.ROLE_USER, REQUIRE_SUPER_ADMIN, false},
		{"guest on super admin route", userTypes.ROLE_GUEST, REQUIRE_SUPER_ADMIN, false},
		{"super admin on super admin route", userTypes.ROLE_SUPER_ADMIN, REQUIRE_SUPER_ADMIN, true},
		{"guest on account route", userTypes.ROLE_GUEST, REQUIRE_ACCOUNT, false},
		{"user on account route", userTypes.ROLE_USER, REQUIRE_ACCOUNT, true},
		{"unknown role on account route", "editor", REQUIRE_ACCOUNT, false},
		{"anonymous on public route", "", REQUIRE_ANY, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthorized(tt.role, tt.required); got != tt.want {
				t.Errorf("IsAuthorized(%q, %v) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestIsOwnerOrAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		callerID string
		role     string
		ownerID  string
		want     bool
	}{
		{"owner", "a", userTypes.ROLE_USER, "a", true},
		{"other user", "a", userTypes.ROLE_USER, "b", false},
		{"admin on other", "a", userTypes.ROLE_ADMIN, "b", true},
		{"super admin on other", "a", userTypes.ROLE_SUPER_ADMIN, "b", true},
		{"guest with matching id", "g", userTypes.ROLE_GUEST, "g", false},
		{"empty ids", "", userTypes.ROLE_USER, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOwnerOrAdmin(tt.callerID, tt.role, tt.ownerID); got != tt.want {
				t.Errorf("IsOwnerOrAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
