package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/jesses-code-adventures/tims/internal/config"
)

func init() {
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

// SQLDB implements DB on sqlite3, libsql or postgres. Queries are written
// with ? placeholders and rebound for the driver in use.
type SQLDB struct {
	conn *sqlx.DB
	ext  sqlx.ExtContext
	inTx bool
}

func NewDB(cfg *config.Config) (*SQLDB, error) {
	conn, err := sqlx.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.DatabaseDriver == "sqlite3" {
		// a single writer avoids SQLITE_BUSY between a transaction and
		// statements outside of it
		conn.SetMaxOpenConns(1)
	}
	return &SQLDB{conn: conn, ext: conn}, nil
}

// NewFromConn wraps an existing connection, used with sqlmock.
func NewFromConn(conn *sql.DB, driverName string) *SQLDB {
	db := sqlx.NewDb(conn, driverName)
	return &SQLDB{conn: db, ext: db}
}

func (s *SQLDB) Close() error {
	return s.conn.Close()
}

func (s *SQLDB) GetConnection() *sqlx.DB {
	return s.conn
}

func (s *SQLDB) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.conn)
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer
// transaction.
func (s *SQLDB) WithTx(ctx context.Context, fn func(tx DB) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&SQLDB{conn: s.conn, ext: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLDB) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, s.ext, dest, s.ext.Rebind(query), args...)
}

func (s *SQLDB) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	query, args, err := expandIn(query, args)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, s.ext, dest, s.ext.Rebind(query), args...)
}

func (s *SQLDB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.ext.ExecContext(ctx, s.ext.Rebind(query), args...)
	if err != nil && isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %v", ErrUniqueViolation, err)
	}
	return res, err
}

// execOne is exec for statements that must touch exactly one row.
func (s *SQLDB) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}

func expandIn(query string, args []any) (string, []any, error) {
	if !strings.Contains(query, "(?)") {
		return query, args, nil
	}
	return sqlx.In(query, args...)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// libsql reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// clientFilter appends an IN clause for ids. A non-nil empty slice matches
// nothing.
func clientFilter(where []string, args []any, column string, ids []string) ([]string, []any) {
	if ids == nil {
		return where, args
	}
	if len(ids) == 0 {
		return append(where, "1 = 0"), args
	}
	return append(where, column+" IN (?)"), append(args, ids)
}

func rangeFilter(where []string, args []any, column string, r *Range) ([]string, []any) {
	if r == nil {
		return where, args
	}
	where = append(where, column+" >= ?")
	args = append(args, r.Start)
	if r.End > 0 {
		where = append(where, column+" < ?")
		args = append(args, r.End)
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}
