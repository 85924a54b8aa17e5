package jwthandling

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Information a token encodes
type AccountClaims struct {
	IsGuest bool `json:"is_guest,omitempty"`
	jwt.RegisteredClaims
}

func GenerateNewAccountToken(
	expiresIn time.Duration,
	accountID string,
	isGuest bool,
	secretKey string,
	now time.Time,
) (tokenString string, err error) {
	if secretKey == "" {
		return "", errors.New("token sign key is not configured")
	}
	claims := AccountClaims{
		isGuest,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   accountID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

// ValidateAccountToken checks signature and expiry. Failures are reported as ErrTokenExpired or
// ErrTokenMalformed, the underlying jwt error is wrapped for logging.
func ValidateAccountToken(tokenString string, secretKey string, now time.Time) (*AccountClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccountClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*AccountClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
