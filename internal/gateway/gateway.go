// Package gateway is the data-service boundary. Every read and write of
// profiles, postings, applications and notifications goes through the three
// data primitives below; authentication is the fourth and lives behind
// Authenticator.
package gateway

import (
	"context"

	"hirecircle/internal/domain"
)

// Row is a set of column values for Insert and Update.
type Row map[string]any

type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "<>"
	OpLt  Op = "<"
	OpGt  Op = ">"
)

// Filter compares a column with a value. Columns are either bare (the queried
// collection) or "alias.column" for a joined collection.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

// Join pulls a related record in through a foreign key. On names the local
// foreign key column (bare or "alias.column"); it is matched against the
// joined collection's id. Selected columns come back as "<as>_<column>".
// Joins are inner unless Optional is set, so a filter on a joined column
// restricts the parent rows.
type Join struct {
	Collection string
	As         string
	On         string
	Columns    []string
	Optional   bool
}

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Collection string
	Columns    []string
	Filters    []Filter
	Joins      []Join
	Order      []Order
	Limit      int
}

// Gateway is the typed CRUD surface over named collections.
//
// Query scans into a pointer to a slice (all matching rows) or a pointer to a
// struct (first row; domain.ErrNotFound when there is none). Insert and
// Update scan the stored row into dest; rows are keyed by a string "id".
// Update applies patch to the row with the given id that also satisfies
// where; no such row is domain.ErrNotFound.
//
// Failures are classified: domain.ErrNotFound, domain.ErrConflict for unique
// violations, domain.ErrPersistence for everything else. Context errors are
// returned unchanged.
type Gateway interface {
	Query(ctx context.Context, q Query, dest any) error
	Insert(ctx context.Context, collection string, row Row, dest any) error
	Update(ctx context.Context, collection string, id string, patch Row, dest any, where ...Filter) error
}

// Authenticator resolves a bearer token to the session it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

const (
	Profiles      = "profiles"
	JobPosts      = "job_posts"
	Applications  = "job_applications"
	Notifications = "notifications"
)
