package test

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	pg "github.com/code-payments/code-vault/pkg/database/postgres"
	"github.com/code-payments/code-vault/pkg/retry"
	"github.com/code-payments/code-vault/pkg/retry/backoff"
)

const (
	containerName     = "postgres"
	containerVersion  = "14.5"
	containerAutoKill = 120 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

const (
	postgresUserEnv     = "POSTGRES_USER=" + user
	postgresPasswordEnv = "POSTGRES_PASSWORD=" + password
	postgresDbEnv       = "POSTGRES_DB=" + dbname
)

// StartPostgresDB starts a Docker container using the postgres image and returns a postgres client for testing purposes.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"listen_addresses = '*'",
			postgresUserEnv,
			postgresPasswordEnv,
			postgresDbEnv,
		},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrapf(err, "failed to start resource")
	}

	closeFunc = func() {
		_ = pool.Purge(resource)
	}

	containerPort := fmt.Sprintf("%d/tcp", port)
	hostPort, err := strconv.Atoi(resource.GetPort(containerPort))
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "invalid host port")
	}

	config := &pg.Config{
		User:               user,
		Password:           password,
		Host:               resource.GetBoundIP(containerPort),
		Port:               hostPort,
		DbName:             dbname,
		MaxOpenConnections: 10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Minute,
	}

	// Expire() never returns an error. The container is killed after
	// containerAutoKill even if the test binary dies before closeFunc runs.
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	_, err = retry.Retry(
		context.Background(),
		func() error {
			db, err = pg.NewWithConfig(config)
			return err
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Second),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	return db, closeFunc, nil
}
