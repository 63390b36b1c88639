// Package postgres persists merchant snapshots in a single JSONB table,
// keyed by the merchant's content-hash namespace.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"warungpay/backend/internal/domain"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS merchant_snapshots (
			snapshot_key text PRIMARY KEY,
			doc          jsonb NOT NULL,
			updated_at   timestamptz NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key string, dest any) error {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM merchant_snapshots WHERE snapshot_key = $1
	`, key).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: load snapshot %q: %v", domain.ErrStorage, key, err)
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return fmt.Errorf("%w: decode snapshot %q: %v", domain.ErrStorage, key, err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot %q: %v", domain.ErrStorage, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merchant_snapshots (snapshot_key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (snapshot_key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, key, doc)
	if err != nil {
		return fmt.Errorf("%w: save snapshot %q: %v", domain.ErrStorage, key, err)
	}
	return nil
}
