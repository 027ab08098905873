package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by repositories.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrReferenced      = errors.New("record is referenced by other records")
	ErrInvalidRelation = errors.New("referenced record does not exist")
)

// PostgreSQL error codes handled explicitly.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can
// run inside a caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapErr converts driver errors into repository sentinels. Unique violations
// may be mapped to a constraint-specific error via dup.
func mapErr(err error, dup map[string]error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if mapped, ok := dup[pgErr.ConstraintName]; ok {
				return mapped
			}
			return ErrDuplicate
		case pgForeignKeyViolation:
			// Inserts and updates fail because the parent is missing; deletes
			// fail because children still point at the row.
			if strings.Contains(pgErr.Detail, "is still referenced") {
				return ErrReferenced
			}
			return ErrInvalidRelation
		}
	}
	return err
}

// filter accumulates WHERE clauses with positional arguments. Clauses use
// %s (or %[1]s for repeats) where the placeholder goes.
type filter struct {
	clauses []string
	args    []any
}

func (f *filter) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, fmt.Sprintf(clause, "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) addRaw(clause string) {
	f.clauses = append(f.clauses, clause)
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause.
func (f *filter) page(limit, off int) string {
	f.args = append(f.args, limit, off)
	n := len(f.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
