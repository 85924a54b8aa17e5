// Package authguard decides who a caller is and what they may do: it issues and verifies bearer
// tokens, authenticates credentials with a lockout policy and answers role and ownership checks.
package authguard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/newsreel/cms-backend/pkg/db"
	jwthandling "github.com/newsreel/cms-backend/pkg/jwt-handling"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
	"github.com/newsreel/cms-backend/pkg/user-management/pwhash"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
)

const (
	MAX_FAILED_LOGIN_ATTEMPTS = 5
	LOCK_DURATION             = 2 * time.Hour

	DEFAULT_TOKEN_TTL = 7 * 24 * time.Hour
	GUEST_TOKEN_TTL   = 24 * time.Hour

	PHONE_ACCOUNT_SECRET_BYTES = 32
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrLocked            = errors.New("account is temporarily locked")
	ErrInactive          = errors.New("account is not active")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrExpired           = errors.New("token expired")
	ErrMalformed         = errors.New("token malformed")
	ErrForbidden         = errors.New("access forbidden")
	ErrDuplicateAccount  = errors.New("an account with this email or phone already exists")
)

// CredentialStore is the part of the account store the guard reads and mutates.
type CredentialStore interface {
	CreateAccount(account *userTypes.Account) (*userTypes.Account, error)
	GetAccountByID(id string) (*userTypes.Account, error)
	GetAccountByEmail(email string) (*userTypes.Account, error)
	GetAccountByPhone(phone string) (*userTypes.Account, error)
	RegisterFailedLogin(id string, now time.Time) (int, error)
	LockAccount(id string, until time.Time) error
	RecordSuccessfulLogin(id string, now time.Time) error
}

type TokenConfig struct {
	SignKey  string
	TokenTTL time.Duration
	GuestTTL time.Duration
}

type Guard struct {
	store  CredentialStore
	tokens TokenConfig
	now    func() time.Time
}

type Credentials struct {
	Identifier string
	Secret     string
}

type AuthResult struct {
	Token   string            `json:"token"`
	Account userTypes.Account `json:"account"`
}

// Principal is the verified identity behind a bearer token. Account is nil for guests.
type Principal struct {
	AccountID string
	Role      string
	IsGuest   bool
	Account   *userTypes.Account
}

func NewGuard(store CredentialStore, tokens TokenConfig) *Guard {
	if tokens.TokenTTL <= 0 {
		tokens.TokenTTL = DEFAULT_TOKEN_TTL
	}
	if tokens.GuestTTL <= 0 {
		tokens.GuestTTL = GUEST_TOKEN_TTL
	}
	return &Guard{
		store:  store,
		tokens: tokens,
		now:    time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// IssueToken signs a token for the account. A zero ttl selects the default lifetime for the kind of
// caller. The only error is a missing signing key.
func (g *Guard) IssueToken(accountID string, isGuest bool, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = g.tokens.TokenTTL
		if isGuest {
			ttl = g.tokens.GuestTTL
		}
	}
	return jwthandling.GenerateNewAccountToken(ttl, accountID, isGuest, g.tokens.SignKey, g.now())
}

// Authenticate checks an email or phone identifier and its secret. The lock is checked before the
// secret, so a locked account reports ErrLocked even for the correct secret.
func (g *Guard) Authenticate(creds Credentials) (*AuthResult, error) {
	now := g.now()
	account, err := g.findByIdentifier(creds.Identifier)
	if err != nil {
		return nil, err
	}
	if account.IsLocked(now) {
		slog.Warn("login attempt on locked account", slog.String("accountID", account.ID.Hex()))
		return nil, ErrLocked
	}
	if !account.IsActive() {
		slog.Warn("login attempt on inactive account", slog.String("accountID", account.ID.Hex()), slog.String("status", account.Status))
		return nil, ErrInactive
	}

	match, err := pwhash.ComparePasswordWithHash(account.Password, creds.Secret)
	if err != nil {
		slog.Error("stored password hash could not be read", slog.String("accountID", account.ID.Hex()), slog.String("error", err.Error()))
		match = false
	}
	if !match {
		return nil, g.registerFailedLogin(account, now)
	}
	return g.completeLogin(account, now)
}

// AuthenticateWithPhone signs in the owner of a phone number whose one-time password was already
// verified. Unknown numbers get a new account.
func (g *Guard) AuthenticateWithPhone(phone string) (*AuthResult, error) {
	phone = umUtils.SanitizePhoneNumber(phone)
	if !umUtils.CheckPhoneFormat(phone) {
		return nil, ErrNotFound
	}
	now := g.now()

	account, err := g.store.GetAccountByPhone(phone)
	if db.IsNotFound(err) {
		account, err = g.provisionPhoneAccount(phone, now)
	}
	if err != nil {
		return nil, err
	}

	if account.IsLocked(now) {
		return nil, ErrLocked
	}
	if !account.IsActive() {
		return nil, ErrInactive
	}
	return g.completeLogin(account, now)
}

func (g *Guard) provisionPhoneAccount(phone string, now time.Time) (*userTypes.Account, error) {
	secret, err := umUtils.GenerateRandomSecret(PHONE_ACCOUNT_SECRET_BYTES)
	if err != nil {
		return nil, err
	}
	hash, err := pwhash.HashPassword(secret)
	if err != nil {
		return nil, err
	}

	newAccount := umUtils.InitNewPhoneAccount(phone, hash, now)
	created, err := g.store.CreateAccount(&newAccount)
	if errors.Is(err, db.ErrDuplicateKey) {
		// provisioned concurrently by another request
		return g.store.GetAccountByPhone(phone)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("provisioned account for phone login", slog.String("accountID", created.ID.Hex()))
	return created, nil
}

// GuestSession issues a short-lived token for an account that is never stored.
func (g *Guard) GuestSession(deviceInfo string) (*AuthResult, error) {
	guest := umUtils.NewGuestAccount(deviceInfo, g.now())
	token, err := g.IssueToken(guest.ID.Hex(), true, 0)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: guest}, nil
}

// VerifyToken checks the token and, for accounts, that the account may still act: a token of a
// deleted, deactivated or locked account stops working right away.
func (g *Guard) VerifyToken(token string) (*Principal, error) {
	now := g.now()
	claims, err := jwthandling.ValidateAccountToken(token, g.tokens.SignKey, now)
	if err != nil {
		if errors.Is(err, jwthandling.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	if claims.IsGuest {
		return &Principal{
			AccountID: claims.Subject,
			Role:      userTypes.ROLE_GUEST,
			IsGuest:   true,
		}, nil
	}

	account, err := g.store.GetAccountByID(claims.Subject)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if account.IsLocked(now) {
		return nil, ErrLocked
	}
	if !account.IsActive() {
		return nil, ErrInactive
	}
	redacted := account.Redacted()
	return &Principal{
		AccountID: account.ID.Hex(),
		Role:      account.Role,
		Account:   &redacted,
	}, nil
}

func (g *Guard) Authorize(callerRole string, required permissionchecker.RequiredRole) bool {
	return permissionchecker.IsAuthorized(callerRole, required)
}

func (g *Guard) AuthorizeOwnership(callerID string, callerRole string, resourceOwnerID string) error {
	if !permissionchecker.IsOwnerOrAdmin(callerID, callerRole, resourceOwnerID) {
		slog.Warn("ownership check failed", slog.String("callerID", callerID), slog.String("resourceOwnerID", resourceOwnerID))
		return ErrForbidden
	}
	return nil
}

func (g *Guard) findByIdentifier(identifier string) (*userTypes.Account, error) {
	var (
		account *userTypes.Account
		err     error
	)
	if umUtils.IsEmailIdentifier(identifier) {
		account, err = g.store.GetAccountByEmail(umUtils.SanitizeEmail(identifier))
	} else {
		phone := umUtils.SanitizePhoneNumber(identifier)
		if phone == "" {
			return nil, ErrNotFound
		}
		account, err = g.store.GetAccountByPhone(phone)
	}
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// registerFailedLogin counts the failure. The failure that reaches the threshold locks the
// account and is itself reported as ErrLocked.
func (g *Guard) registerFailedLogin(account *userTypes.Account, now time.Time) error {
	id := account.ID.Hex()
	attempts, err := g.store.RegisterFailedLogin(id, now)
	if err != nil {
		return err
	}
	if attempts < MAX_FAILED_LOGIN_ATTEMPTS {
		slog.Warn("failed login", slog.String("accountID", id), slog.Int("attempts", attempts))
		return ErrInvalidCredential
	}
	if err := g.store.LockAccount(id, now.Add(LOCK_DURATION)); err != nil {
		return err
	}
	slog.Warn("account locked after repeated failed logins", slog.String("accountID", id), slog.Int("attempts", attempts))
	return ErrLocked
}

func (g *Guard) completeLogin(account *userTypes.Account, now time.Time) (*AuthResult, error) {
	id := account.ID.Hex()
	if err := g.store.RecordSuccessfulLogin(id, now); err != nil {
		return nil, err
	}
	account.FailedLoginAttempts = 0
	account.LockUntil = nil
	account.LastActiveAt = now

	token, err := g.IssueToken(id, false, 0)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: account.Redacted()}, nil
}
