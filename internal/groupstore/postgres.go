package groupstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the casts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS casts (
    project_id      TEXT PRIMARY KEY,
    groups          JSONB NOT NULL DEFAULT '[]',
    worst_proximity INTEGER NOT NULL DEFAULT 0,
    acceptable      BOOLEAN NOT NULL DEFAULT false,
    saved_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Groups are
// stored as a JSONB array.
type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] on the given connection or pool.
// The caller is responsible for calling [PostgresStore.Migrate].
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects a pool to the database at dsn, pings it and migrates the
// schema. Call [PostgresStore.Close] when done.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("groupstore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("groupstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("groupstore: ping: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool opened by [Open]. It is a no-op for stores built
// with [NewPostgresStore].
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("groupstore: migrate: %w", err)
	}
	return nil
}

// Save implements [Store.Save].
func (s *PostgresStore) Save(ctx context.Context, c *Cast) error {
	if c.ProjectID == "" {
		return errors.New("groupstore: save: project id is required")
	}
	groups := c.Groups
	if groups == nil {
		groups = []Group{}
	}
	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("groupstore: marshal groups: %w", err)
	}

	const query = `
		INSERT INTO casts (project_id, groups, worst_proximity, acceptable)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id) DO UPDATE SET
			groups = EXCLUDED.groups,
			worst_proximity = EXCLUDED.worst_proximity,
			acceptable = EXCLUDED.acceptable,
			saved_at = now()
		RETURNING saved_at`

	err = s.db.QueryRow(ctx, query, c.ProjectID, groupsJSON, c.WorstProximity, c.Acceptable).Scan(&c.SavedAt)
	if err != nil {
		return fmt.Errorf("groupstore: save %q: %w", c.ProjectID, err)
	}
	return nil
}

// Load implements [Store.Load].
func (s *PostgresStore) Load(ctx context.Context, projectID string) (*Cast, error) {
	const query = `
		SELECT groups, worst_proximity, acceptable, saved_at
		FROM casts
		WHERE project_id = $1`

	c := &Cast{ProjectID: projectID}
	var groupsJSON []byte
	err := s.db.QueryRow(ctx, query, projectID).Scan(&groupsJSON, &c.WorstProximity, &c.Acceptable, &c.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(projectID)
		}
		return nil, fmt.Errorf("groupstore: load %q: %w", projectID, err)
	}
	if err := json.Unmarshal(groupsJSON, &c.Groups); err != nil {
		return nil, fmt.Errorf("groupstore: unmarshal groups: %w", err)
	}
	return c, nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, projectID string) error {
	const query = `DELETE FROM casts WHERE project_id = $1`
	if _, err := s.db.Exec(ctx, query, projectID); err != nil {
		return fmt.Errorf("groupstore: delete %q: %w", projectID, err)
	}
	return nil
}
