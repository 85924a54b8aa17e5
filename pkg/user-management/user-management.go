package usermanagement

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
	"github.com/newsreel/cms-backend/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	LANGUAGE_MIN_LEN     = 2
	LANGUAGE_MAX_LEN     = 5
	MAX_PREFERENCE_ITEMS = 16
)

var (
	ErrNotFound         = errors.New("account not found")
	ErrDuplicatePhone   = errors.New("phone number is already in use")
	ErrSelfModification = errors.New("accounts cannot change their own role or status")
)

// AccountStore is the part of the account store used for profile, bookmark and admin operations.
type AccountStore interface {
	GetAccountByID(id string) (*userTypes.Account, error)
	UpdateProfile(id string, update userTypes.ProfileUpdate) (*userTypes.Account, error)
	UpdatePreferences(id string, prefs userTypes.Preferences) (*userTypes.Account, error)
	AddBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error)
	RemoveBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error)
	SetAccountStatus(id string, status string) (*userTypes.Account, error)
	SetAccountRole(id string, role string) (*userTypes.Account, error)
	FindAccounts(filter userTypes.AccountFilter, page int64, limit int64) ([]userTypes.Account, int64, error)
}

type AccountList struct {
	Accounts   []userTypes.Account `json:"accounts"`
	Pagination db.PaginationInfos  `json:"pagination"`
}

type Service struct {
	store AccountStore
}

func NewService(store AccountStore) *Service {
	return &Service{store: store}
}

func (s *Service) GetAccount(id string) (*userTypes.Account, error) {
	acc, err := s.store.GetAccountByID(id)
	return redactedOrError(acc, err)
}

func (s *Service) UpdateProfile(id string, update userTypes.ProfileUpdate) (*userTypes.Account, error) {
	v := &validation.Error{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
		v.Check(umUtils.CheckNameFormat(name), "name", "name must be between 1 and 50 characters")
	}
	if update.Phone != nil {
		phone := umUtils.SanitizePhoneNumber(*update.Phone)
		update.Phone = &phone
		if phone != "" {
			v.Check(umUtils.CheckPhoneFormat(phone), "phone", "phone number is invalid")
		}
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	acc, err := s.store.UpdateProfile(id, update)
	if errors.Is(err, db.ErrDuplicateKey) {
		return nil, ErrDuplicatePhone
	}
	return redactedOrError(acc, err)
}

// ValidatePreferences accepts categories of either content kind.
func ValidatePreferences(prefs userTypes.Preferences) error {
	v := &validation.Error{}
	if len(prefs.Categories) > MAX_PREFERENCE_ITEMS {
		v.Add("categories", "too many categories")
	}
	for _, c := range prefs.Categories {
		if !contentTypes.IsValidCategory(contentTypes.KIND_ARTICLE, c) && !contentTypes.IsValidCategory(contentTypes.KIND_VIDEO, c) {
			v.Add("categories", "unknown category: "+c)
			break
		}
	}
	if prefs.Language != "" {
		n := utf8.RuneCountInString(prefs.Language)
		v.Check(n >= LANGUAGE_MIN_LEN && n <= LANGUAGE_MAX_LEN, "language", "language must be a language code")
	}
	return v.ErrOrNil()
}

func (s *Service) UpdatePreferences(id string, prefs userTypes.Preferences) (*userTypes.Account, error) {
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}
	if prefs.Categories == nil {
		prefs.Categories = []string{}
	}
	if prefs.Language == "" {
		prefs.Language = "en"
	}
	acc, err := s.store.UpdatePreferences(id, prefs)
	return redactedOrError(acc, err)
}

// AddBookmark stores a reference to content the caller already checked exists.
func (s *Service) AddBookmark(id string, kind string, contentID string) (*userTypes.Account, error) {
	ref, err := bookmarkRef(kind, contentID)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.AddBookmark(id, kind, ref)
	return redactedOrError(acc, err)
}

func (s *Service) RemoveBookmark(id string, kind string, contentID string) (*userTypes.Account, error) {
	ref, err := bookmarkRef(kind, contentID)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.RemoveBookmark(id, kind, ref)
	return redactedOrError(acc, err)
}

func (s *Service) ListAccounts(filter userTypes.AccountFilter, page int64, limit int64) (*AccountList, error) {
	v := &validation.Error{}
	if filter.Role != "" {
		v.Check(userTypes.IsValidRole(filter.Role), "role", "unknown role")
	}
	if filter.Status != "" {
		v.Check(userTypes.IsValidAccountStatus(filter.Status), "status", "unknown status")
	}
	v.Check(page >= 1 && page <= contentTypes.LIST_MAX_PAGE, "page", "page must be between 1 and 1000000")
	v.Check(limit >= 1 && limit <= contentTypes.LIST_MAX_LIMIT, "limit", "limit must be between 1 and 100")
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	accounts, total, err := s.store.FindAccounts(filter, page, limit)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i] = accounts[i].Redacted()
	}
	return &AccountList{
		Accounts:   accounts,
		Pagination: db.PrepPaginationInfos(total, page, limit),
	}, nil
}

// SetStatus activates, deactivates or suspends an account. Deactivated accounts lose access on
// their next request because token verification re-reads the status.
func (s *Service) SetStatus(callerID string, id string, status string) (*userTypes.Account, error) {
	if !userTypes.IsValidAccountStatus(status) {
		v := &validation.Error{}
		v.Add("status", "status must be active, inactive or suspended")
		return nil, v
	}
	if callerID == id {
		return nil, ErrSelfModification
	}
	acc, err := s.store.SetAccountStatus(id, status)
	if err == nil {
		slog.Info("account status changed", slog.String("accountID", id), slog.String("status", status), slog.String("by", callerID))
	}
	return redactedOrError(acc, err)
}

func (s *Service) SetRole(callerID string, id string, role string) (*userTypes.Account, error) {
	if !userTypes.IsAssignableRole(role) {
		v := &validation.Error{}
		v.Add("role", "role must be user, admin or super_admin")
		return nil, v
	}
	if callerID == id {
		return nil, ErrSelfModification
	}
	acc, err := s.store.SetAccountRole(id, role)
	if err == nil {
		slog.Info("account role changed", slog.String("accountID", id), slog.String("role", role), slog.String("by", callerID))
	}
	return redactedOrError(acc, err)
}

func bookmarkRef(kind string, contentID string) (primitive.ObjectID, error) {
	v := &validation.Error{}
	if _, err := userTypes.BookmarkField(kind); err != nil {
		v.Add("kind", "kind must be article or video")
	}
	ref, err := primitive.ObjectIDFromHex(contentID)
	if err != nil {
		v.Add("contentId", "invalid content id")
	}
	return ref, v.ErrOrNil()
}

func redactedOrError(acc *userTypes.Account, err error) (*userTypes.Account, error) {
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	redacted := acc.Redacted()
	return &redacted, nil
}
