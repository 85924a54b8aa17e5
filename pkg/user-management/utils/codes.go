package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

const codeCharSet = "1234567890"

// GenerateOTPCode generates a random OTP code of the given length
func GenerateOTPCode(length int) (string, error) {
	buffer := make([]byte, length)
	_, err := rand.Read(buffer)
	if err != nil {
		return "", err
	}

	charsetLength := len(codeCharSet)
	for i := 0; i < length; i++ {
		buffer[i] = codeCharSet[int(buffer[i])%charsetLength]
	}
	return string(buffer), nil
}

// GenerateRandomSecret returns a lowercase base32 string built from n random bytes.
func GenerateRandomSecret(n int) (string, error) {
	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buffer)
	return strings.ToLower(secret), nil
}
