package authguard

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/newsreel/cms-backend/pkg/db/memory"
	jwthandling "github.com/newsreel/cms-backend/pkg/jwt-handling"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
	"github.com/newsreel/cms-backend/pkg/user-management/pwhash"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	"github.com/newsreel/cms-backend/pkg/validation"
)

const testSignKey = "test-sign-key"

func TestMain(m *testing.M) {
	// cheap hashing parameters keep the suite fast
	pwhash.InitArgonParams(8*1024, 1, 1)
	os.Exit(m.Run())
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard() (*Guard, *memory.AccountStore, *testClock) {
	store := memory.NewAccountStore()
	clock := &testClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	g := NewGuard(store, TokenConfig{SignKey: testSignKey}).WithClock(clock.now)
	return g, store, clock
}

func registerTestAccount(t *testing.T, g *Guard) *AuthResult {
	t.Helper()
	res, err := g.Register(Registration{Name: "A", Email: "a@x.com", Password: "secret1"}, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	g, store, _ := newTestGuard()

	res := registerTestAccount(t, g)
	if res.Token == "" {
		t.Fatal("token missing")
	}
	if res.Account.Password != "" || res.Account.Role != userTypes.ROLE_USER {
		t.Errorf("unexpected account view: %+v", res.Account)
	}

	stored, _ := store.GetAccountByEmail("a@x.com")
	if stored.Password == "secret1" || stored.Password == "" {
		t.Error("password must be stored hashed")
	}

	login, err := g.Authenticate(Credentials{Identifier: " A@X.com ", Secret: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Token == "" || login.Account.FailedLoginAttempts != 0 || login.Account.Password != "" {
		t.Errorf("unexpected login result: %+v", login)
	}
}

func TestRegisterErrors(t *testing.T) {
	g, _, _ := newTestGuard()
	registerTestAccount(t, g)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := g.Register(Registration{Name: "B", Email: "A@x.com", Password: "secret1"}, "")
		if !errors.Is(err, ErrDuplicateAccount) {
			t.Errorf("expected ErrDuplicateAccount, got %v", err)
		}
	})

	t.Run("every invalid field is reported", func(t *testing.T) {
		_, err := g.Register(Registration{Name: "", Email: "nope", Password: "123", Phone: "12", Role: "guest"}, "")
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if len(vErr.Fields) != 5 {
			t.Errorf("expected 5 violations, got %+v", vErr.Fields)
		}
	})

	t.Run("elevated roles need a super admin", func(t *testing.T) {
		reg := Registration{Name: "Ed", Email: "ed@x.com", Password: "secret1", Role: userTypes.ROLE_ADMIN}
		if _, err := g.Register(reg, ""); !errors.Is(err, ErrForbidden) {
			t.Errorf("anonymous: expected ErrForbidden, got %v", err)
		}
		if _, err := g.Register(reg, userTypes.ROLE_ADMIN); !errors.Is(err, ErrForbidden) {
			t.Errorf("admin: expected ErrForbidden, got %v", err)
		}
		res, err := g.Register(reg, userTypes.ROLE_SUPER_ADMIN)
		if err != nil || res.Account.Role != userTypes.ROLE_ADMIN {
			t.Errorf("super admin: unexpected result %v %v", res, err)
		}
	})
}

func TestLockout(t *testing.T) {
	g, store, clock := newTestGuard()
	registerTestAccount(t, g)

	for i := 1; i < MAX_FAILED_LOGIN_ATTEMPTS; i++ {
		_, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"})
		if !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("attempt %d: expected ErrInvalidCredential, got %v", i, err)
		}
	}
	_, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("5th failure: expected ErrLocked, got %v", err)
	}

	stored, _ := store.GetAccountByEmail("a@x.com")
	if stored.LockUntil == nil || !stored.LockUntil.Equal(clock.t.Add(LOCK_DURATION)) {
		t.Fatalf("unexpected lock: %v", stored.LockUntil)
	}

	if _, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "secret1"}); !errors.Is(err, ErrLocked) {
		t.Errorf("correct secret while locked: expected ErrLocked, got %v", err)
	}

	clock.advance(LOCK_DURATION - time.Second)
	if _, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "secret1"}); !errors.Is(err, ErrLocked) {
		t.Errorf("just before expiry: expected ErrLocked, got %v", err)
	}

	clock.advance(time.Second)
	res, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "secret1"})
	if err != nil {
		t.Fatalf("after expiry: %v", err)
	}
	if res.Account.FailedLoginAttempts != 0 || res.Account.LockUntil != nil {
		t.Errorf("login should reset lock state: %+v", res.Account)
	}
	stored, _ = store.GetAccountByEmail("a@x.com")
	if stored.FailedLoginAttempts != 0 || stored.LockUntil != nil || !stored.LastActiveAt.Equal(clock.t) {
		t.Errorf("stored lock state not reset: %+v", stored)
	}
}

func TestFailedAttemptsRestartAfterExpiredLock(t *testing.T) {
	g, store, clock := newTestGuard()
	registerTestAccount(t, g)
	for i := 0; i < MAX_FAILED_LOGIN_ATTEMPTS; i++ {
		_, _ = g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"})
	}
	clock.advance(LOCK_DURATION)

	_, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"})
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	stored, _ := store.GetAccountByEmail("a@x.com")
	if stored.FailedLoginAttempts != 1 || stored.LockUntil != nil {
		t.Errorf("expected a fresh count of 1, got %d (lock %v)", stored.FailedLoginAttempts, stored.LockUntil)
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	g, store, _ := newTestGuard()
	registerTestAccount(t, g)
	for i := 0; i < 3; i++ {
		_, _ = g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"})
	}
	if _, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "secret1"}); err != nil {
		t.Fatal(err)
	}
	stored, _ := store.GetAccountByEmail("a@x.com")
	if stored.FailedLoginAttempts != 0 {
		t.Errorf("expected counter reset, got %d", stored.FailedLoginAttempts)
	}
}

func TestAuthenticateAccountState(t *testing.T) {
	g, store, _ := newTestGuard()
	res := registerTestAccount(t, g)

	if _, err := g.Authenticate(Credentials{Identifier: "nobody@x.com", Secret: "secret1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, _ = store.SetAccountStatus(res.Account.ID.Hex(), userTypes.ACCOUNT_STATUS_SUSPENDED)
	if _, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "secret1"}); !errors.Is(err, ErrInactive) {
		t.Errorf("expected ErrInactive, got %v", err)
	}
	if _, err := g.Authenticate(Credentials{Identifier: "a@x.com", Secret: "wrong"}); !errors.Is(err, ErrInactive) {
		t.Errorf("inactive is reported before the secret check, got %v", err)
	}
	stored, _ := store.GetAccountByEmail("a@x.com")
	if stored.FailedLoginAttempts != 0 {
		t.Errorf("inactive accounts must not count failures, got %d", stored.FailedLoginAttempts)
	}
}

func TestVerifyToken(t *testing.T) {
	g, store, clock := newTestGuard()
	res := registerTestAccount(t, g)

	t.Run("valid", func(t *testing.T) {
		p, err := g.VerifyToken(res.Token)
		if err != nil {
			t.Fatal(err)
		}
		if p.AccountID != res.Account.ID.Hex() || p.Role != userTypes.ROLE_USER || p.IsGuest || p.Account == nil {
			t.Errorf("unexpected principal: %+v", p)
		}
		if p.Account.Password != "" {
			t.Error("principal account must be redacted")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := g.VerifyToken("not.a.token"); !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
		other := NewGuard(store, TokenConfig{SignKey: "other-key"})
		forged, _ := other.IssueToken(res.Account.ID.Hex(), false, 0)
		if _, err := g.VerifyToken(forged); !errors.Is(err, ErrMalformed) {
			t.Errorf("foreign signature: expected ErrMalformed, got %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		token, _ := jwthandling.GenerateNewAccountToken(time.Hour, "0123456789abcdef01234567", false, testSignKey, clock.t)
		if _, err := g.VerifyToken(token); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("suspended account", func(t *testing.T) {
		_, _ = store.SetAccountStatus(res.Account.ID.Hex(), userTypes.ACCOUNT_STATUS_SUSPENDED)
		defer func() { _, _ = store.SetAccountStatus(res.Account.ID.Hex(), userTypes.ACCOUNT_STATUS_ACTIVE) }()
		if _, err := g.VerifyToken(res.Token); !errors.Is(err, ErrInactive) {
			t.Errorf("expected ErrInactive, got %v", err)
		}
	})

	t.Run("locked account", func(t *testing.T) {
		_ = store.LockAccount(res.Account.ID.Hex(), clock.t.Add(time.Hour))
		defer func() { _ = store.RecordSuccessfulLogin(res.Account.ID.Hex(), clock.t) }()
		if _, err := g.VerifyToken(res.Token); !errors.Is(err, ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		clock.advance(DEFAULT_TOKEN_TTL + time.Second)
		defer clock.advance(-(DEFAULT_TOKEN_TTL + time.Second))
		if _, err := g.VerifyToken(res.Token); !errors.Is(err, ErrExpired) {
			t.Errorf("expected ErrExpired, got %v", err)
		}
	})
}

func TestGuestSession(t *testing.T) {
	g, _, clock := newTestGuard()
	res, err := g.GuestSession("iPhone 15")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Account.IsGuest || res.Account.Role != userTypes.ROLE_GUEST || res.Account.DeviceInfo != "iPhone 15" {
		t.Errorf("unexpected guest account: %+v", res.Account)
	}

	p, err := g.VerifyToken(res.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsGuest || p.Role != userTypes.ROLE_GUEST || p.Account != nil {
		t.Errorf("unexpected principal: %+v", p)
	}

	clock.advance(GUEST_TOKEN_TTL + time.Second)
	if _, err := g.VerifyToken(res.Token); !errors.Is(err, ErrExpired) {
		t.Errorf("guest tokens live 24 hours, got %v", err)
	}
}

func TestAuthenticateWithPhone(t *testing.T) {
	g, store, _ := newTestGuard()

	first, err := g.AuthenticateWithPhone("+1 555 010 2000")
	if err != nil {
		t.Fatal(err)
	}
	if first.Account.Phone != "+15550102000" || first.Account.Email != "phone-15550102000@phone.local" {
		t.Errorf("unexpected provisioned account: %+v", first.Account)
	}

	second, err := g.AuthenticateWithPhone("+15550102000")
	if err != nil {
		t.Fatal(err)
	}
	if second.Account.ID != first.Account.ID {
		t.Error("second login should reuse the provisioned account")
	}

	_, total, _ := store.FindAccounts(userTypes.AccountFilter{}, 1, 10)
	if total != 1 {
		t.Errorf("expected one account, got %d", total)
	}

	if _, err := g.AuthenticateWithPhone("12"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for an invalid number, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	g, _, _ := newTestGuard()
	tests := []struct {
		role     string
		required permissionchecker.RequiredRole
		want     bool
	}{
		{userTypes.ROLE_ADMIN, permissionchecker.REQUIRE_ADMIN, true},
		{userTypes.ROLE_SUPER_ADMIN, permissionchecker.REQUIRE_ADMIN, true},
		{userTypes.ROLE_USER, permissionchecker.REQUIRE_ADMIN, false},
		{userTypes.ROLE_GUEST, permissionchecker.REQUIRE_ADMIN, false},
		{userTypes.ROLE_ADMIN, permissionchecker.REQUIRE_SUPER_ADMIN, false},
		{userTypes.ROLE_SUPER_ADMIN, permissionchecker.REQUIRE_SUPER_ADMIN, true},
	}
	for _, tt := range tests {
		if got := g.Authorize(tt.role, tt.required); got != tt.want {
			t.Errorf("Authorize(%s, %d) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}

	if err := g.AuthorizeOwnership("u1", userTypes.ROLE_USER, "u1"); err != nil {
		t.Errorf("owner should pass: %v", err)
	}
	if err := g.AuthorizeOwnership("u1", userTypes.ROLE_USER, "u2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := g.AuthorizeOwnership("a1", userTypes.ROLE_ADMIN, "u2"); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
}

func TestIssueTokenWithoutKey(t *testing.T) {
	g := NewGuard(memory.NewAccountStore(), TokenConfig{})
	if _, err := g.IssueToken("id", false, 0); err == nil {
		t.Error("expected an error without a sign key")
	}
}
