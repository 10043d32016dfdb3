// Package artifact reads serialized model artifacts from the filesystem or
// from a Postgres artifact table.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("artifact not found")

// Source yields artifact payloads by name.
type Source interface {
	Open(ctx context.Context, name string) ([]byte, error)
	Ping(ctx context.Context) error
}

// Dir serves artifacts from a directory.
type Dir struct {
	Root string
}

func (d Dir) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean("/" + name)
	path := filepath.Join(d.Root, clean)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (d Dir) Ping(ctx context.Context) error {
	info, err := os.Stat(d.Root)
	if err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifact dir: %s is not a directory", d.Root)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const selectArtifact = `SELECT payload FROM model_artifacts WHERE name = $1`

// Postgres serves artifacts stored in the model_artifacts table.
type Postgres struct {
	db querier
}

func NewPostgres(db querier) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Open(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRow(ctx, selectArtifact, strings.TrimSpace(name)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("query artifact %s: %w", name, err)
	}
	return payload, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}
