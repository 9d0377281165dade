package pg

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Config describes how to reach a postgres database
type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// DSN returns the connection string for the config
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DbName,
	)
}

// NewWithConfig opens a connection pool using the New Relic instrumented pgx
// driver and applies the pool limits from the config.
func NewWithConfig(c *Config) (*sql.DB, error) {
	db, err := sql.Open("nrpgx", c.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	if c.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(c.MaxOpenConnections)
	}
	if c.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.MaxIdleConnections)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	// Check if the connection was successful
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error connecting to database")
	}

	return db, nil
}
