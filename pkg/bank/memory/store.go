package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/code-payments/code-vault/pkg/bank"
)

type store struct {
	mu       sync.RWMutex
	accounts map[string]*bank.Account
}

// New returns a new in memory bank.Store
func New() bank.Store {
	return &store{
		accounts: make(map[string]*bank.Account),
	}
}

// Get implements bank.Store.Get
func (s *store) Get(_ context.Context, address ed25519.PublicKey) (*bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[string(address)]
	if !ok {
		return nil, bank.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// GetMany implements bank.Store.GetMany
func (s *store) GetMany(_ context.Context, addresses []ed25519.PublicKey) ([]*bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*bank.Account, len(addresses))
	for i, address := range addresses {
		if account, ok := s.accounts[string(address)]; ok {
			res[i] = account.Clone()
		}
	}
	return res, nil
}

// Commit implements bank.Store.Commit
func (s *store) Commit(_ context.Context, changes []*bank.Account) error {
	for _, account := range changes {
		if err := account.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range changes {
		if account.Lamports == 0 {
			delete(s.accounts, string(account.Address))
			continue
		}
		s.accounts[string(account.Address)] = account.Clone()
	}
	return nil
}

// Count implements bank.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.accounts)), nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*bank.Account)
}
