package authguard

import (
	"errors"
	"log/slog"

	"github.com/newsreel/cms-backend/pkg/db"
	permissionchecker "github.com/newsreel/cms-backend/pkg/permission-checker"
	"github.com/newsreel/cms-backend/pkg/user-management/pwhash"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
	"github.com/newsreel/cms-backend/pkg/validation"
)

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// ValidateRegistration checks every registration field and reports all violations together.
func ValidateRegistration(reg Registration) error {
	v := &validation.Error{}
	v.Check(umUtils.CheckNameFormat(reg.Name), "name", "name must be between 1 and 50 characters")
	v.Check(umUtils.CheckEmailFormat(umUtils.SanitizeEmail(reg.Email)), "email", "a valid email address is required")
	v.Check(umUtils.CheckPasswordFormat(reg.Password), "password", "password must be between 6 and 128 characters")
	if reg.Phone != "" {
		v.Check(umUtils.CheckPhoneFormat(umUtils.SanitizePhoneNumber(reg.Phone)), "phone", "phone number is invalid")
	}
	if reg.Role != "" {
		v.Check(userTypes.IsAssignableRole(reg.Role), "role", "role must be user, admin or super_admin")
	}
	return v.ErrOrNil()
}

// Register creates an email account and signs it in. Registering an admin or super admin requires
// a super admin caller.
func (g *Guard) Register(reg Registration, callerRole string) (*AuthResult, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	role := reg.Role
	if role == "" {
		role = userTypes.ROLE_USER
	}
	if role != userTypes.ROLE_USER && !permissionchecker.IsAuthorized(callerRole, permissionchecker.REQUIRE_SUPER_ADMIN) {
		slog.Warn("elevated role requested without super admin rights", slog.String("role", role))
		return nil, ErrForbidden
	}

	email := umUtils.SanitizeEmail(reg.Email)
	phone := umUtils.SanitizePhoneNumber(reg.Phone)
	if _, err := g.store.GetAccountByEmail(email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !db.IsNotFound(err) {
		return nil, err
	}
	if phone != "" {
		if _, err := g.store.GetAccountByPhone(phone); err == nil {
			return nil, ErrDuplicateAccount
		} else if !db.IsNotFound(err) {
			return nil, err
		}
	}

	hash, err := pwhash.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	now := g.now()
	newAccount := umUtils.InitNewEmailAccount(reg.Name, email, hash, phone, role, now)
	created, err := g.store.CreateAccount(&newAccount)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	slog.Info("account registered", slog.String("accountID", created.ID.Hex()), slog.String("role", role))

	token, err := g.IssueToken(created.ID.Hex(), false, 0)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: created.Redacted()}, nil
}
