package access

import (
	"context"
	"sync"

	id "mintledger/pkg/domain"
)

// InMemoryRoleStore keeps role grants in a mutex-guarded map.
type InMemoryRoleStore struct {
	mu     sync.RWMutex
	grants map[id.Principal]map[Role]struct{}
}

func NewInMemoryRoleStore() *InMemoryRoleStore {
	return &InMemoryRoleStore{
		grants: make(map[id.Principal]map[Role]struct{}),
	}
}

func (s *InMemoryRoleStore) Grant(_ context.Context, principal id.Principal, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, exists := s.grants[principal]
	if !exists {
		roles = make(map[Role]struct{})
		s.grants[principal] = roles
	}
	roles[role] = struct{}{}
	return nil
}

func (s *InMemoryRoleStore) Revoke(_ context.Context, principal id.Principal, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roles, exists := s.grants[principal]; exists {
		delete(roles, role)
	}
	return nil
}

func (s *InMemoryRoleStore) HasRole(_ context.Context, principal id.Principal, role Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles, exists := s.grants[principal]
	if !exists {
		return false, nil
	}
	_, held := roles[role]
	return held, nil
}

func (s *InMemoryRoleStore) Roles(_ context.Context, principal id.Principal) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Role
	for _, role := range []Role{RoleAdmin, RoleMinter} {
		if _, held := s.grants[principal][role]; held {
			out = append(out, role)
		}
	}
	return out, nil
}
