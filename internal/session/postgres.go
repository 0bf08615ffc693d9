package session

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// schemaSQL is embedded so the relay can bootstrap its own table.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore keeps session flags in the session_flags table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the DB is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	if dbURL == "" {
		return nil, errors.New("postgres session store requires DB_URL")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "postgres connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "apply session schema")
}

func (p *PostgresStore) Get(ctx context.Context, session, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `
		SELECT value
		FROM session_flags
		WHERE session_id=$1
		  AND flag=$2
		  AND (expires_at IS NULL OR expires_at > now())
	`, session, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "postgres get flag")
	}
	return value, true, nil
}

// Set upserts the flag; a later write replaces both value and expiry.
func (p *PostgresStore) Set(ctx context.Context, session, key, value string, ttl time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO session_flags(session_id, flag, value, expires_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id, flag)
		DO UPDATE SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at, updated_at=now()
	`, session, key, value, expiryFor(ttl))
	return errors.Wrap(err, "postgres set flag")
}

// CompareAndSet relies on row locking: the insert path only overwrites an
// expired row, and the update path only matches a live row still holding old.
func (p *PostgresStore) CompareAndSet(ctx context.Context, session, key, old, value string, ttl time.Duration) (bool, error) {
	var (
		one int
		err error
	)
	if old == "" {
		// RETURNING 1 only when inserted or an expired row was replaced.
		err = p.pool.QueryRow(ctx, `
			INSERT INTO session_flags(session_id, flag, value, expires_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (session_id, flag)
			DO UPDATE SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at, updated_at=now()
			WHERE session_flags.expires_at IS NOT NULL AND session_flags.expires_at <= now()
			RETURNING 1
		`, session, key, value, expiryFor(ttl)).Scan(&one)
	} else {
		err = p.pool.QueryRow(ctx, `
			UPDATE session_flags
			SET value=$4, expires_at=$5, updated_at=now()
			WHERE session_id=$1
			  AND flag=$2
			  AND value=$3
			  AND (expires_at IS NULL OR expires_at > now())
			RETURNING 1
		`, session, key, old, value, expiryFor(ttl)).Scan(&one)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "postgres compare-and-set flag")
	}
	return true, nil
}

func expiryFor(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl).UTC()
	return &t
}

func (p *PostgresStore) Delete(ctx context.Context, session string, keys ...string) error {
	if len(keys) == 0 {
		_, err := p.pool.Exec(ctx, `DELETE FROM session_flags WHERE session_id=$1`, session)
		return errors.Wrap(err, "postgres clear session")
	}
	_, err := p.pool.Exec(ctx, `
		DELETE FROM session_flags
		WHERE session_id=$1 AND flag = ANY($2)
	`, session, keys)
	return errors.Wrap(err, "postgres delete flags")
}

// PurgeExpired removes flags whose expiry has passed and returns how many were dropped.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM session_flags WHERE expires_at <= now()`)
	if err != nil {
		return 0, errors.Wrap(err, "purge expired flags")
	}
	return tag.RowsAffected(), nil
}

// Ping is used by the readiness endpoint.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
