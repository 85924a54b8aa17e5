package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ROLE_USER        = "user"
	ROLE_ADMIN       = "admin"
	ROLE_SUPER_ADMIN = "super_admin"
	ROLE_GUEST       = "guest"
)

const (
	ACCOUNT_STATUS_ACTIVE    = "active"
	ACCOUNT_STATUS_INACTIVE  = "inactive"
	ACCOUNT_STATUS_SUSPENDED = "suspended"
)

var (
	Roles           = []string{ROLE_USER, ROLE_ADMIN, ROLE_SUPER_ADMIN, ROLE_GUEST}
	AccountStatuses = []string{ACCOUNT_STATUS_ACTIVE, ACCOUNT_STATUS_INACTIVE, ACCOUNT_STATUS_SUSPENDED}
	AssignableRoles = []string{ROLE_USER, ROLE_ADMIN, ROLE_SUPER_ADMIN}
)

type Account struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Password string `bson:"password" json:"password,omitempty"`
	Role     string `bson:"role" json:"role"`
	Status   string `bson:"status" json:"status"`

	// Lockout
	FailedLoginAttempts int        `bson:"failedLoginAttempts" json:"failedLoginAttempts"`
	LockUntil           *time.Time `bson:"lockUntil,omitempty" json:"lockUntil,omitempty"`

	PasswordResetToken     string `bson:"passwordResetToken,omitempty" json:"passwordResetToken,omitempty"`
	EmailVerificationToken string `bson:"emailVerificationToken,omitempty" json:"emailVerificationToken,omitempty"`

	Preferences Preferences `bson:"preferences" json:"preferences"`
	Bookmarks   Bookmarks   `bson:"bookmarks" json:"bookmarks"`

	IsGuest    bool   `bson:"-" json:"isGuest,omitempty"`
	DeviceInfo string `bson:"-" json:"deviceInfo,omitempty"`

	LastActiveAt time.Time `bson:"lastActiveAt" json:"lastActiveAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Preferences struct {
	Categories    []string `bson:"categories" json:"categories"`
	Language      string   `bson:"language" json:"language"`
	Notifications bool     `bson:"notifications" json:"notifications"`
}

// IsLocked reports whether the lockout window is still running at now.
func (a Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

func (a Account) IsActive() bool {
	return a.Status == ACCOUNT_STATUS_ACTIVE
}

// Redacted returns a copy that is safe to send to clients: no password hash, no reset or
// verification tokens.
func (a Account) Redacted() Account {
	a.Password = ""
	a.PasswordResetToken = ""
	a.EmailVerificationToken = ""
	a.Bookmarks = a.Bookmarks.clone()
	return a
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func IsAssignableRole(role string) bool {
	for _, r := range AssignableRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidAccountStatus(status string) bool {
	for _, s := range AccountStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ProfileUpdate lists the self-service profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type AccountFilter struct {
	Role   string
	Status string
	Search string
}
