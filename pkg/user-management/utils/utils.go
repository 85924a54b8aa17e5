package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	PASSWORD_MIN_LEN = 6
	PASSWORD_MAX_LEN = 128

	NAME_MIN_LEN = 1
	NAME_MAX_LEN = 50
)

var (
	emailRule = regexp.MustCompile(`^[a-zA-Z0-9._%+'-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRule = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

func SanitizeEmail(email string) string {
	email = strings.ToLower(email)
	email = strings.Trim(email, " \n\r")
	return email
}

// SanitizePhoneNumber drops formatting characters so "+1 (555) 010-2000" and "+15550102000" match.
func SanitizePhoneNumber(phone string) string {
	phone = strings.Trim(phone, " \n\r")
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckEmailFormat to check if input string is a correct email address
func CheckEmailFormat(email string) bool {
	if len(email) > 254 {
		return false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	return emailRule.MatchString(email)
}

func CheckPhoneFormat(phone string) bool {
	return phoneRule.MatchString(phone)
}

// CheckPasswordFormat only enforces length bounds; strength rules are left to clients.
func CheckPasswordFormat(password string) bool {
	pl := utf8.RuneCountInString(password)
	return pl >= PASSWORD_MIN_LEN && pl <= PASSWORD_MAX_LEN
}

func CheckNameFormat(name string) bool {
	nl := utf8.RuneCountInString(strings.TrimSpace(name))
	return nl >= NAME_MIN_LEN && nl <= NAME_MAX_LEN
}

// IsEmailIdentifier decides whether a login identifier should be looked up as email or phone.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}
