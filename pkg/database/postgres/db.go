package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/retry"
	"github.com/code-payments/code-vault/pkg/retry/backoff"
)

const (
	maxSerializationRetries = 10
	minSerializationBackoff = 5 * time.Millisecond
	maxSerializationBackoff = 250 * time.Millisecond
)

// Conflicting transactions that back off in lockstep conflict again, hence
// the jitter.
var serializationRetrier = retry.NewRetrier(
	retry.Limit(maxSerializationRetries),
	func(_ context.Context, _ uint, err error) bool {
		return IsSerializationFailure(err)
	},
	retry.BackoffWithJitter(backoff.BinaryExponential(minSerializationBackoff), maxSerializationBackoff, 0.25),
)

// ExecuteRetryable retries fn while it fails with a serialization failure,
// which is expected under concurrent serializable transactions.
func ExecuteRetryable(ctx context.Context, fn func() error) error {
	_, err := serializationRetrier.Retry(ctx, fn)
	return err
}

// ExecuteInTx is meant for DB store implementations to execute an operation within
// the scope of a DB transaction. Commit or rollback is decided by whether fn
// returns an error.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: normalizeIsolation(isolation),
	})
	if err != nil {
		return err
	}

	return finishTx(tx, fn(tx))
}

func finishTx(tx *sqlx.Tx, err error) error {
	if err != nil {
		// We always need to execute a Rollback() so sql.DB releases the connection.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}
	return tx.Commit()
}

func normalizeIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted // Postgres default
	}
	return isolation
}

// IsSerializationFailure reports whether err is a postgres serialization failure
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.SerializationFailure
}
