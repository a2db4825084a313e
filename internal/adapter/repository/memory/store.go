// Package memory holds the materialized ledger graph the rest of the system
// operates on. The snapshot adapter hands a fully populated Store to the
// services on startup and persists it on exit.
package memory

import (
	"github.com/api-sage/retail-ledger/internal/domain"
	"github.com/api-sage/retail-ledger/internal/registry"
)

type Store struct {
	identities   *registry.Registry[*domain.Identity]
	institutions *registry.Registry[*domain.Institution]
}

func NewStore() *Store {
	return &Store{
		identities:   registry.New[*domain.Identity](),
		institutions: registry.New[*domain.Institution](),
	}
}

// AddIdentity registers an identity, enforcing username uniqueness across
// the whole ledger.
func (s *Store) AddIdentity(u *domain.Identity) error {
	if s.UsernameExists(u.Username()) {
		return domain.ErrUsernameTaken
	}
	s.identities.Add(u)
	return nil
}

// AddInstitution registers an institution, enforcing sort-code uniqueness.
func (s *Store) AddInstitution(b *domain.Institution) error {
	if s.SortCodeExists(b.SortCode()) {
		return domain.ErrSortCodeTaken
	}
	s.institutions.Add(b)
	return nil
}

func (s *Store) Identities() []*domain.Identity {
	return s.identities.Items()
}

func (s *Store) Institutions() []*domain.Institution {
	return s.institutions.Items()
}

func (s *Store) IdentityCount() int {
	return s.identities.Len()
}

func (s *Store) InstitutionCount() int {
	return s.institutions.Len()
}

func (s *Store) UsernameExists(username string) bool {
	_, ok := s.identities.Find(func(u *domain.Identity) bool {
		return u.Username() == username
	})
	return ok
}

func (s *Store) SortCodeExists(sortCode string) bool {
	_, ok := s.institutions.Find(func(b *domain.Institution) bool {
		return b.SortCode() == sortCode
	})
	return ok
}

// AccountNumberExists scans every identity's accounts for the given number.
func (s *Store) AccountNumberExists(number string) bool {
	for _, u := range s.identities.Items() {
		for _, a := range u.Accounts() {
			if a.Number() == number {
				return true
			}
		}
	}
	return false
}

func (s *Store) IdentityByUsername(username string) (*domain.Identity, error) {
	u, ok := s.identities.Find(func(u *domain.Identity) bool {
		return u.Username() == username
	})
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return u, nil
}

func (s *Store) InstitutionBySortCode(sortCode string) (*domain.Institution, error) {
	b, ok := s.institutions.Find(func(b *domain.Institution) bool {
		return b.SortCode() == sortCode
	})
	if !ok {
		return nil, domain.ErrInstitutionNotFound
	}
	return b, nil
}

// InstitutionForAccount resolves the institution hosting the account by
// matching the account's sort code against the registered institutions.
func (s *Store) InstitutionForAccount(a *domain.Account) (*domain.Institution, error) {
	return s.InstitutionBySortCode(a.SortCode())
}

// PayeeExists reports whether any identity's payee display name matches.
func (s *Store) PayeeExists(payeeName string) bool {
	for _, u := range s.identities.Items() {
		if u.MatchesPayeeName(payeeName) {
			return true
		}
	}
	return false
}

// AccountByPayee resolves an account by simultaneously matching the holder's
// payee name, the account number and the sort code.
func (s *Store) AccountByPayee(payeeName, number, sortCode string) (*domain.Account, error) {
	for _, u := range s.identities.Items() {
		if !u.MatchesPayeeName(payeeName) {
			continue
		}
		for _, a := range u.Accounts() {
			if a.Number() == number && a.SortCode() == sortCode {
				return a, nil
			}
		}
	}
	return nil, domain.ErrPayeeNotFound
}
