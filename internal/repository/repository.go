// Package repository holds the identity store: credentials and refresh
// sessions. Business records live behind the gateway instead.
package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Credential CredentialRepository
	Session    SessionRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Credential: NewCredentialRepository(db),
		Session:    NewSessionRepository(db),
	}
}
