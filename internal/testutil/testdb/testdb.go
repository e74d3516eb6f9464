//go:build integration

// Package testdb starts a throwaway Postgres for repository tests.
package testdb

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/app"
	"github.com/Freeeeeet/studentia/migrations"
)

type DBHandle struct {
	Pool   *pgxpool.Pool
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start поднимает контейнер и применяет миграции
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("studentia"),
		postgres.WithUsername("studentia"),
		postgres.WithPassword("studentia"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, pool); err != nil {
		pool.Close()
		return fail(err)
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, zap.NewNop())
	if err != nil {
		pool.Close()
		return fail(err)
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return fail(err)
	}

	return &DBHandle{
		Pool:   pool,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

func waitReady(ctx context.Context, pool *pgxpool.Pool) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}

// Reset очищает все таблицы между тестами
func (h *DBHandle) Reset(ctx context.Context) error {
	_, err := h.Pool.Exec(ctx, `
		TRUNCATE access_requests, documents, data_groups, request_groups,
		         requester_identities, consent_events RESTART IDENTITY
	`)
	return err
}
