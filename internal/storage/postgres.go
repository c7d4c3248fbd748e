package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/deusflow/technews/internal/logger"
)

// PostgresStore keeps summaries in the full_summaries table
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore connects, pings and makes sure the schema exists
func NewPostgresStore(ctx context.Context, connectionString string, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, ttl: ttl}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres summary store connected")
	return store, nil
}

func (ps *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS full_summaries (
		url_hash VARCHAR(64) PRIMARY KEY,
		url TEXT NOT NULL,
		summary TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_full_summaries_created_at ON full_summaries(created_at);
	`
	_, err := ps.db.ExecContext(ctx, schema)
	return err
}

func (ps *PostgresStore) Get(ctx context.Context, url string) (SummaryRecord, error) {
	query := `
		SELECT url, summary, word_count, created_at
		FROM full_summaries
		WHERE url_hash = $1 AND created_at > $2`

	var rec SummaryRecord
	err := ps.db.QueryRowContext(ctx, query, URLHash(url), time.Now().Add(-ps.ttl)).
		Scan(&rec.URL, &rec.Summary, &rec.WordCount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SummaryRecord{}, ErrNotFound
	}
	if err != nil {
		return SummaryRecord{}, fmt.Errorf("failed to load summary: %w", err)
	}
	return rec, nil
}

func (ps *PostgresStore) Put(ctx context.Context, rec SummaryRecord) error {
	query := `
		INSERT INTO full_summaries (url_hash, url, summary, word_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url_hash) DO UPDATE SET
			summary = EXCLUDED.summary,
			word_count = EXCLUDED.word_count,
			created_at = EXCLUDED.created_at`

	if _, err := ps.db.ExecContext(ctx, query, URLHash(rec.URL), rec.URL, rec.Summary, rec.WordCount, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// Cleanup removes expired summaries
func (ps *PostgresStore) Cleanup(ctx context.Context) (int64, error) {
	res, err := ps.db.ExecContext(ctx, `DELETE FROM full_summaries WHERE created_at < $1`, time.Now().Add(-ps.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup summaries: %w", err)
	}
	return res.RowsAffected()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
