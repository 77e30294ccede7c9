// Package database persists consent preferences and the consent decision
// log in Postgres.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"design-gallery-backend/internal/consent"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the pool for the migrator.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) GetPreference(ctx context.Context, visitorID uuid.UUID, key string) (string, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `
		SELECT value FROM consent_preferences
		WHERE visitor_id = $1 AND key = $2
	`, visitorID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}
	return value, true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DatabaseClient) SetPreference(ctx context.Context, visitorID uuid.UUID, key, value string) error {
	return setPreference(ctx, d.db, visitorID, key, value)
}

func setPreference(ctx context.Context, db execer, visitorID uuid.UUID, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO consent_preferences (visitor_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (visitor_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, visitorID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// appendConsentLog records one consent decision. Rows are never updated.
func appendConsentLog(ctx context.Context, db execer, visitorID uuid.UUID, pref consent.Preference, source string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO consent_log (visitor_id, analytics, marketing, source)
		VALUES ($1, $2, $3, $4)
	`, visitorID, pref.Analytics, pref.Marketing, source)
	if err != nil {
		return fmt.Errorf("failed to append consent log: %w", err)
	}
	return nil
}

// RecordConsent stores the preference and its log row in one transaction,
// so a stored preference always has a matching decision in the log.
func (d *DatabaseClient) RecordConsent(ctx context.Context, visitorID uuid.UUID, pref consent.Preference, source string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := setPreference(ctx, tx, visitorID, consent.StorageKey, pref.Encode()); err != nil {
		return err
	}
	if err := appendConsentLog(ctx, tx, visitorID, pref, source); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consent: %w", err)
	}
	return nil
}

// VisitorStore scopes the preference table to one visitor so it can back a
// consent.Store.
func (d *DatabaseClient) VisitorStore(ctx context.Context, visitorID uuid.UUID) consent.Store {
	return &visitorStore{ctx: ctx, client: d, visitorID: visitorID}
}

type visitorStore struct {
	ctx       context.Context
	client    *DatabaseClient
	visitorID uuid.UUID
}

func (s *visitorStore) Get(key string) (string, bool, error) {
	return s.client.GetPreference(s.ctx, s.visitorID, key)
}

func (s *visitorStore) Set(key, value string) error {
	return s.client.SetPreference(s.ctx, s.visitorID, key, value)
}
