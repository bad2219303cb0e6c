// Package testutil provides a migrated in-memory database and record
// builders for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/config"
	"hirecircle/internal/database"
	"hirecircle/internal/domain"
)

// NewDB returns a fresh in-memory SQLite database with every migration
// applied. It is closed when the test ends.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := config.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// SeedProfile inserts a credential and matching profile and returns the
// profile.
func SeedProfile(t *testing.T, db *sqlx.DB, fullName string, role domain.Role) domain.Profile {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := db.Exec(db.Rebind(`INSERT INTO credentials (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		id, id+"@example.com", "x", now)
	require.NoError(t, err)

	_, err = db.Exec(db.Rebind(`INSERT INTO profiles (id, full_name, user_type, created_at) VALUES (?, ?, ?, ?)`),
		id, fullName, string(role), now)
	require.NoError(t, err)

	return domain.Profile{ID: id, FullName: fullName, UserType: role, CreatedAt: now}
}

// SeedCredential inserts a credential with no profile.
func SeedCredential(t *testing.T, db *sqlx.DB) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(db.Rebind(`INSERT INTO credentials (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		id, id+"@example.com", "x", time.Now().UTC())
	require.NoError(t, err)
	return id
}

// SessionFor builds the session an authenticated profile would carry.
func SessionFor(p domain.Profile) *domain.Session {
	return &domain.Session{UserID: p.ID, Email: p.ID + "@example.com", ExpiresAt: time.Now().Add(time.Hour)}
}
