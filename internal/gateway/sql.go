package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"hirecircle/internal/domain"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLGateway implements Gateway on a relational database through sqlx. It
// works against PostgreSQL and SQLite; placeholders are rebound per driver.
type SQLGateway struct {
	db *sqlx.DB
}

func NewSQLGateway(db *sqlx.DB) *SQLGateway {
	return &SQLGateway{db: db}
}

func (g *SQLGateway) Query(ctx context.Context, q Query, dest any) error {
	query, args, err := buildSelect(q)
	if err != nil {
		return err
	}
	query = g.db.Rebind(query)

	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("gateway: dest must be a non-nil pointer, got %T", dest)
	}

	if target.Elem().Kind() == reflect.Slice {
		// sqlx appends to the existing slice; start empty so retries
		// never duplicate rows.
		target.Elem().Set(reflect.MakeSlice(target.Elem().Type(), 0, 0))
		return Classify(g.db.SelectContext(ctx, dest, query, args...), "query "+q.Collection)
	}

	return Classify(g.db.GetContext(ctx, dest, query, args...), "query "+q.Collection)
}

func (g *SQLGateway) Insert(ctx context.Context, collection string, row Row, dest any) error {
	if err := checkIdentifier(collection); err != nil {
		return err
	}
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("gateway: insert into %s without a string id", collection)
	}

	columns := sortedColumns(row)
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		if err := checkIdentifier(column); err != nil {
			return err
		}
		args = append(args, row[column])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		collection, strings.Join(columns, ", "), placeholders)

	if _, err := g.db.ExecContext(ctx, g.db.Rebind(query), args...); err != nil {
		return Classify(err, "insert "+collection)
	}

	return g.reload(ctx, collection, id, dest, "insert")
}

func (g *SQLGateway) Update(ctx context.Context, collection string, id string, patch Row, dest any, where ...Filter) error {
	if err := checkIdentifier(collection); err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("gateway: empty update of %s", collection)
	}

	columns := sortedColumns(patch)
	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+len(where)+1)
	for _, column := range columns {
		if err := checkIdentifier(column); err != nil {
			return err
		}
		sets = append(sets, column+" = ?")
		args = append(args, patch[column])
	}

	conditions := []string{"id = ?"}
	args = append(args, id)
	for _, f := range where {
		cond, condArgs, err := filterSQL(collection, f)
		if err != nil {
			return err
		}
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		collection, strings.Join(sets, ", "), strings.Join(conditions, " AND "))

	res, err := g.db.ExecContext(ctx, g.db.Rebind(query), args...)
	if err != nil {
		return Classify(err, "update "+collection)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Classify(err, "update "+collection)
	}
	if n == 0 {
		return domain.NewError(domain.ErrNotFound, "update "+collection+": no matching row", nil)
	}

	return g.reload(ctx, collection, id, dest, "update")
}

// reload reads a written row back so callers see stored defaults and
// driver-normalized values.
func (g *SQLGateway) reload(ctx context.Context, collection, id string, dest any, op string) error {
	query := g.db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE id = ?", collection))
	return Classify(g.db.GetContext(ctx, dest, query, id), op+" "+collection)
}

func buildSelect(q Query) (string, []any, error) {
	if err := checkIdentifier(q.Collection); err != nil {
		return "", nil, err
	}

	var selects []string
	if len(q.Columns) == 0 {
		selects = append(selects, q.Collection+".*")
	}
	for _, column := range q.Columns {
		qualified, err := qualify(q.Collection, column)
		if err != nil {
			return "", nil, err
		}
		selects = append(selects, qualified)
	}

	var joins []string
	for _, j := range q.Joins {
		if err := checkIdentifier(j.Collection); err != nil {
			return "", nil, err
		}
		if err := checkIdentifier(j.As); err != nil {
			return "", nil, err
		}
		on, err := qualify(q.Collection, j.On)
		if err != nil {
			return "", nil, err
		}

		kind := "INNER JOIN"
		if j.Optional {
			kind = "LEFT JOIN"
		}
		joins = append(joins, fmt.Sprintf("%s %s AS %s ON %s.id = %s", kind, j.Collection, j.As, j.As, on))

		for _, column := range j.Columns {
			if err := checkIdentifier(column); err != nil {
				return "", nil, err
			}
			selects = append(selects, fmt.Sprintf("%s.%s AS %s_%s", j.As, column, j.As, column))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(selects, ", "), q.Collection)
	for _, join := range joins {
		b.WriteString(" ")
		b.WriteString(join)
	}

	var args []any
	if len(q.Filters) > 0 {
		conditions := make([]string, 0, len(q.Filters))
		for _, f := range q.Filters {
			cond, condArgs, err := filterSQL(q.Collection, f)
			if err != nil {
				return "", nil, err
			}
			conditions = append(conditions, cond)
			args = append(args, condArgs...)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	if len(q.Order) > 0 {
		orders := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			qualified, err := qualify(q.Collection, o.Column)
			if err != nil {
				return "", nil, err
			}
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			orders = append(orders, qualified+" "+direction)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

func filterSQL(collection string, f Filter) (string, []any, error) {
	column, err := qualify(collection, f.Column)
	if err != nil {
		return "", nil, err
	}

	switch f.Op {
	case OpEq, OpNeq, OpLt, OpGt:
	default:
		return "", nil, fmt.Errorf("gateway: unsupported operator %q", f.Op)
	}

	if f.Value == nil {
		switch f.Op {
		case OpEq:
			return column + " IS NULL", nil, nil
		case OpNeq:
			return column + " IS NOT NULL", nil, nil
		}
	}

	return fmt.Sprintf("%s %s ?", column, f.Op), []any{f.Value}, nil
}

// qualify turns "col" into "collection.col" and validates "alias.col".
func qualify(collection, column string) (string, error) {
	table, name, found := strings.Cut(column, ".")
	if !found {
		table, name = collection, column
	}
	if err := checkIdentifier(table); err != nil {
		return "", err
	}
	if err := checkIdentifier(name); err != nil {
		return "", err
	}
	return table + "." + name, nil
}

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("gateway: invalid identifier %q", name)
	}
	return nil
}

func sortedColumns(row Row) []string {
	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Classify maps a driver error onto the domain taxonomy. Repositories that
// sit beside the gateway use it for the same mapping.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewError(domain.ErrNotFound, op+": no matching row", err)
	}
	if isUniqueViolation(err) {
		return domain.NewError(domain.ErrConflict, op+": duplicate record", err)
	}
	return domain.Persistence(op+" failed", err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}

	return false
}
