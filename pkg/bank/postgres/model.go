package postgres

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/bank"
	pgutil "github.com/code-payments/code-vault/pkg/database/postgres"
)

const (
	tableName = "vault__core_account"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address    string `db:"address"`
	Lamports   string `db:"lamports"` // NUMERIC(20, 0), wide enough for any uint64
	Owner      string `db:"owner"`
	Data       []byte `db:"data"`
	Executable bool   `db:"executable"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *bank.Account) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address:    base58.Encode(obj.Address),
		Lamports:   strconv.FormatUint(obj.Lamports, 10),
		Owner:      base58.Encode(obj.Owner),
		Data:       data,
		Executable: obj.Executable,
	}, nil
}

func fromModel(obj *model) (*bank.Account, error) {
	lamports, err := strconv.ParseUint(obj.Lamports, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid lamports")
	}

	address, err := base58.Decode(obj.Address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}

	owner, err := base58.Decode(obj.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}

	var data []byte
	if len(obj.Data) > 0 {
		data = obj.Data
	}

	return &bank.Account{
		Address:    ed25519.PublicKey(address),
		Lamports:   lamports,
		Owner:      ed25519.PublicKey(owner),
		Data:       data,
		Executable: obj.Executable,
	}, nil
}

func (m *model) isEmpty() bool {
	return m.Lamports == "0"
}

func (m *model) dbUpsert(ctx context.Context, tx *sqlx.Tx) error {
	query := `INSERT INTO ` + tableName + `
		(address, lamports, owner, data, executable, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)

		ON CONFLICT (address)
		DO UPDATE
			SET lamports = $2, owner = $3, data = $4, executable = $5, last_updated_at = $6
			WHERE ` + tableName + `.address = $1

		RETURNING
			id, address, lamports, owner, data, executable, last_updated_at`

	m.LastUpdatedAt = time.Now()

	return tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Lamports,
		m.Owner,
		m.Data,
		m.Executable,
		m.LastUpdatedAt.UTC(),
	).StructScan(m)
}

func dbDelete(ctx context.Context, tx *sqlx.Tx, address string) error {
	query := `DELETE FROM ` + tableName + `
		WHERE address = $1`

	_, err := tx.ExecContext(ctx, query, address)
	return err
}

func dbCommit(ctx context.Context, db *sqlx.DB, models []*model) error {
	return pgutil.ExecuteRetryable(ctx, func() error {
		return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
			for _, m := range models {
				if m.isEmpty() {
					if err := dbDelete(ctx, tx, m.Address); err != nil {
						return err
					}
					continue
				}

				if err := m.dbUpsert(ctx, tx); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT id, address, lamports, owner, data, executable, last_updated_at FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, bank.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetMany(ctx context.Context, db *sqlx.DB, addresses []string) ([]*model, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id, address, lamports, owner, data, executable, last_updated_at FROM `+tableName+`
		WHERE address IN (?)`, addresses)
	if err != nil {
		return nil, err
	}

	var res []*model
	err = db.SelectContext(ctx, &res, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
