package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"classroom-service/internal/app"
	"classroom-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store implements app.Store on top of bun, for Postgres and SQLite alike.
type Store struct {
	root *bun.DB
	db   bun.IDB
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{root: db, db: db}
}

// WithinTx runs fn in a database transaction. Nested calls join the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.root == nil {
		return fn(ctx, s)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}

// LockStudent takes a row lock on the student profile. SQLite needs none: it runs
// one writer at a time.
func (s *Store) LockStudent(ctx context.Context, studentID int64) error {
	q := s.db.NewSelect().
		Model((*studentRow)(nil)).
		Column("user_id").
		Where("st.user_id = ?", studentID)
	if s.db.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	var id int64
	if err := q.Scan(ctx, &id); err != nil {
		return mapNotFound(err, domain.ErrUserNotFound)
	}
	return nil
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// mapUnique turns a unique-constraint violation into conflict.
func mapUnique(err, conflict error) error {
	if isUniqueViolation(err) {
		return conflict
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
