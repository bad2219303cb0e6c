package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Credential struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByID(ctx context.Context, id string) (*Credential, error)
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type credentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO credentials (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, cred.ID, cred.Email, cred.PasswordHash, cred.CreatedAt)
	return err
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*Credential, error) {
	var cred Credential
	query := r.db.Rebind(`SELECT * FROM credentials WHERE id = ?`)

	err := r.db.GetContext(ctx, &cred, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	var cred Credential
	query := r.db.Rebind(`SELECT * FROM credentials WHERE email = ?`)

	err := r.db.GetContext(ctx, &cred, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM credentials WHERE email = ?`)
	err := r.db.GetContext(ctx, &count, query, email)
	return count > 0, err
}

// Delete removes a credential together with its sessions. It is the
// compensating step when profile creation fails after sign-up.
func (r *credentialRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sessions WHERE user_id = ?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM credentials WHERE id = ?`), id); err != nil {
		return err
	}

	return tx.Commit()
}
