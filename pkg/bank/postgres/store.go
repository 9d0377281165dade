package postgres

import (
	"context"
	"crypto/ed25519"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/mr-tron/base58"

	"github.com/code-payments/code-vault/pkg/bank"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres bank.Store
func New(db *sql.DB) bank.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements bank.Store.Get
func (s *store) Get(ctx context.Context, address ed25519.PublicKey) (*bank.Account, error) {
	model, err := dbGet(ctx, s.db, base58.Encode(address))
	if err != nil {
		return nil, err
	}
	return fromModel(model)
}

// GetMany implements bank.Store.GetMany
func (s *store) GetMany(ctx context.Context, addresses []ed25519.PublicKey) ([]*bank.Account, error) {
	encoded := make([]string, len(addresses))
	for i, address := range addresses {
		encoded[i] = base58.Encode(address)
	}

	models, err := dbGetMany(ctx, s.db, encoded)
	if err != nil {
		return nil, err
	}

	byAddress := make(map[string]*model, len(models))
	for _, m := range models {
		byAddress[m.Address] = m
	}

	res := make([]*bank.Account, len(addresses))
	for i, address := range encoded {
		m, ok := byAddress[address]
		if !ok {
			continue
		}

		res[i], err = fromModel(m)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Commit implements bank.Store.Commit
func (s *store) Commit(ctx context.Context, changes []*bank.Account) error {
	models := make([]*model, len(changes))
	for i, account := range changes {
		model, err := toModel(account)
		if err != nil {
			return err
		}
		models[i] = model
	}

	return dbCommit(ctx, s.db, models)
}

// Count implements bank.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
