// Package memory holds in-memory versions of the account and content stores. They back the
// "memory" store mode for local development and the component tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newsreel/cms-backend/pkg/db"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]*userTypes.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[primitive.ObjectID]*userTypes.Account)}
}

func (s *AccountStore) CreateAccount(account *userTypes.Account) (*userTypes.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email || (account.Phone != "" && existing.Phone == account.Phone) {
			return nil, db.ErrDuplicateKey
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	s.accounts[account.ID] = copyAccount(account)
	return account, nil
}

func (s *AccountStore) GetAccountByID(id string) (*userTypes.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[objID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return copyAccount(acc), nil
}

func (s *AccountStore) GetAccountByEmail(email string) (*userTypes.Account, error) {
	return s.find(func(a *userTypes.Account) bool { return a.Email == email })
}

func (s *AccountStore) GetAccountByPhone(phone string) (*userTypes.Account, error) {
	return s.find(func(a *userTypes.Account) bool { return phone != "" && a.Phone == phone })
}

func (s *AccountStore) find(match func(*userTypes.Account) bool) (*userTypes.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acc := range s.accounts {
		if match(acc) {
			return copyAccount(acc), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *AccountStore) RegisterFailedLogin(id string, now time.Time) (int, error) {
	var attempts int
	err := s.mutate(id, func(acc *userTypes.Account) error {
		if acc.LockUntil != nil && !acc.LockUntil.After(now) {
			acc.FailedLoginAttempts = 0
			acc.LockUntil = nil
		}
		acc.FailedLoginAttempts++
		acc.UpdatedAt = now
		attempts = acc.FailedLoginAttempts
		return nil
	})
	return attempts, err
}

func (s *AccountStore) LockAccount(id string, until time.Time) error {
	return s.mutate(id, func(acc *userTypes.Account) error {
		acc.LockUntil = &until
		acc.UpdatedAt = time.Now()
		return nil
	})
}

func (s *AccountStore) RecordSuccessfulLogin(id string, now time.Time) error {
	return s.mutate(id, func(acc *userTypes.Account) error {
		acc.FailedLoginAttempts = 0
		acc.LockUntil = nil
		acc.LastActiveAt = now
		acc.UpdatedAt = now
		return nil
	})
}

func (s *AccountStore) UpdateProfile(id string, update userTypes.ProfileUpdate) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		if update.Phone != nil && *update.Phone != "" {
			for otherID, other := range s.accounts {
				if otherID != acc.ID && other.Phone == *update.Phone {
					return db.ErrDuplicateKey
				}
			}
		}
		if update.Name != nil {
			acc.Name = *update.Name
		}
		if update.Phone != nil {
			acc.Phone = *update.Phone
		}
		acc.UpdatedAt = time.Now()
		return nil
	})
}

func (s *AccountStore) UpdatePreferences(id string, prefs userTypes.Preferences) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		prefs.Categories = append([]string{}, prefs.Categories...)
		acc.Preferences = prefs
		acc.UpdatedAt = time.Now()
		return nil
	})
}

func (s *AccountStore) AddBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		acc.UpdatedAt = time.Now()
		return acc.Bookmarks.Add(kind, ref)
	})
}

func (s *AccountStore) RemoveBookmark(id string, kind string, ref primitive.ObjectID) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		acc.UpdatedAt = time.Now()
		return acc.Bookmarks.Remove(kind, ref)
	})
}

func (s *AccountStore) SetAccountStatus(id string, status string) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		acc.Status = status
		acc.UpdatedAt = time.Now()
		return nil
	})
}

func (s *AccountStore) SetAccountRole(id string, role string) (*userTypes.Account, error) {
	return s.mutateAndGet(id, func(acc *userTypes.Account) error {
		acc.Role = role
		acc.UpdatedAt = time.Now()
		return nil
	})
}

func (s *AccountStore) FindAccounts(filter userTypes.AccountFilter, page int64, limit int64) ([]userTypes.Account, int64, error) {
	s.mu.RLock()
	matches := []userTypes.Account{}
	search := strings.ToLower(filter.Search)
	for _, acc := range s.accounts {
		if filter.Role != "" && acc.Role != filter.Role {
			continue
		}
		if filter.Status != "" && acc.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(acc.Name), search) && !strings.Contains(acc.Email, search) {
			continue
		}
		matches = append(matches, acc.Redacted())
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID.Hex() > matches[j].ID.Hex()
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return paginate(matches, page, limit), int64(len(matches)), nil
}

func (s *AccountStore) mutate(id string, apply func(*userTypes.Account) error) error {
	_, err := s.mutateAndGet(id, apply)
	return err
}

// mutateAndGet applies fn under the write lock, so every call is one atomic update.
func (s *AccountStore) mutateAndGet(id string, apply func(*userTypes.Account) error) (*userTypes.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[objID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	updated := copyAccount(acc)
	if err := apply(updated); err != nil {
		return nil, err
	}
	s.accounts[objID] = updated
	return copyAccount(updated), nil
}

func copyAccount(acc *userTypes.Account) *userTypes.Account {
	c := *acc
	c.Bookmarks = userTypes.Bookmarks{
		Articles: append([]primitive.ObjectID{}, acc.Bookmarks.Articles...),
		Videos:   append([]primitive.ObjectID{}, acc.Bookmarks.Videos...),
	}
	c.Preferences.Categories = append([]string{}, acc.Preferences.Categories...)
	if acc.LockUntil != nil {
		until := *acc.LockUntil
		c.LockUntil = &until
	}
	return &c
}

func paginate[T any](list []T, page int64, limit int64) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return list
	}
	// a page beyond any slice length, or one whose offset overflows, is empty
	if page-1 > int64(len(list))/limit {
		return []T{}
	}
	start := (page - 1) * limit
	if start < 0 || start >= int64(len(list)) {
		return []T{}
	}
	end := start + limit
	if end > int64(len(list)) {
		end = int64(len(list))
	}
	return list[start:end]
}
