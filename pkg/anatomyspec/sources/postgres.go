package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

const (
	schemaSQL = `
	CREATE TABLE IF NOT EXISTS anatomy_templates (
		template TEXT NOT NULL,
		network TEXT NOT NULL,
		format TEXT NOT NULL,
		compressed BOOLEAN NOT NULL DEFAULT FALSE,
		body BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (template, network)
	);

	CREATE INDEX IF NOT EXISTS idx_anatomy_templates_template ON anatomy_templates(template);
	`

	selectSQL = `SELECT format, compressed, body FROM anatomy_templates WHERE template = $1 AND network = $2`

	listSQL = `SELECT template, network FROM anatomy_templates ORDER BY template, network`

	upsertSQL = `
		INSERT INTO anatomy_templates (template, network, format, compressed, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (template, network) DO UPDATE
		SET format = EXCLUDED.format, compressed = EXCLUDED.compressed,
			body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`

	deleteSQL = `DELETE FROM anatomy_templates WHERE template = $1 AND network = $2`
)

// querier is satisfied by *pgxpool.Pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres serves documents from the anatomy_templates table.
type Postgres struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPostgres connects, verifies the connection and creates the table if
// needed.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres source: database URL required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	p := &Postgres{db: pool, pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.Exec(ctx, schemaSQL)
	return err
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Fetch(ctx context.Context, template, networkType string) (*anatomyspec.Document, error) {
	key, err := checkKey(template, networkType)
	if err != nil {
		return nil, err
	}

	var (
		format     string
		compressed bool
		body       []byte
	)
	err = p.db.QueryRow(ctx, selectSQL, template, networkType).Scan(&format, &compressed, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", key, err)
	}

	name := networkType + "." + format
	if compressed {
		name += anatomyspec.CompressedSuffix
	}
	return decode(key, name, body)
}

func (p *Postgres) List(ctx context.Context) ([]anatomyspec.Key, error) {
	rows, err := p.db.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var keys []anatomyspec.Key
	for rows.Next() {
		var k anatomyspec.Key
		if err := rows.Scan(&k.Template, &k.Network); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Put validates doc and stores it in the given format, replacing any
// existing row for its key.
func (p *Postgres) Put(ctx context.Context, doc *anatomyspec.Document, format anatomyspec.Format, compress bool) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	body, err := anatomyspec.Marshal(doc, format)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if compress {
		body = anatomyspec.Pack(body)
	}

	_, err = p.db.Exec(ctx, upsertSQL, doc.Template, doc.Network, string(format), compress, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store template %s: %w", doc.Key(), err)
	}
	return nil
}

// Delete removes a template row and reports whether one existed.
func (p *Postgres) Delete(ctx context.Context, key anatomyspec.Key) (bool, error) {
	tag, err := p.db.Exec(ctx, deleteSQL, key.Template, key.Network)
	if err != nil {
		return false, fmt.Errorf("failed to delete template %s: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}
