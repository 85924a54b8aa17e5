package utils

import (
	"strings"
	"time"

	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PHONE_PLACEHOLDER_EMAIL_DOMAIN = "phone.local"

func InitNewEmailAccount(
	name string,
	email string,
	passwordHash string,
	phone string,
	role string,
	now time.Time,
) userTypes.Account {
	if role == "" {
		role = userTypes.ROLE_USER
	}
	return userTypes.Account{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Phone:        phone,
		Password:     passwordHash,
		Role:         role,
		Status:       userTypes.ACCOUNT_STATUS_ACTIVE,
		Preferences:  defaultPreferences(),
		Bookmarks:    emptyBookmarks(),
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// InitNewPhoneAccount provisions an account on first phone login. The email is a placeholder
// derived from the number and the password hash belongs to a random secret nobody knows.
func InitNewPhoneAccount(phone string, passwordHash string, now time.Time) userTypes.Account {
	digits := strings.TrimPrefix(phone, "+")
	acc := InitNewEmailAccount(
		"User "+lastDigits(digits, 4),
		PlaceholderEmailForPhone(phone),
		passwordHash,
		phone,
		userTypes.ROLE_USER,
		now,
	)
	return acc
}

// NewGuestAccount builds the ephemeral account used for guest sessions. It is never persisted.
func NewGuestAccount(deviceInfo string, now time.Time) userTypes.Account {
	return userTypes.Account{
		ID:           primitive.NewObjectID(),
		Name:         "Guest",
		Role:         userTypes.ROLE_GUEST,
		Status:       userTypes.ACCOUNT_STATUS_ACTIVE,
		IsGuest:      true,
		DeviceInfo:   deviceInfo,
		Preferences:  defaultPreferences(),
		Bookmarks:    emptyBookmarks(),
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func PlaceholderEmailForPhone(phone string) string {
	return "phone-" + strings.TrimPrefix(phone, "+") + "@" + PHONE_PLACEHOLDER_EMAIL_DOMAIN
}

func defaultPreferences() userTypes.Preferences {
	return userTypes.Preferences{
		Categories:    []string{},
		Language:      "en",
		Notifications: true,
	}
}

func emptyBookmarks() userTypes.Bookmarks {
	return userTypes.Bookmarks{
		Articles: []primitive.ObjectID{},
		Videos:   []primitive.ObjectID{},
	}
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
