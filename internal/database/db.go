package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"dictee/internal/config"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite database at dbPath and applies migrations
func Initialize(ctx context.Context, dbPath string) (*DB, error) {
	return Open(ctx, config.DatabaseConfig{Type: "sqlite", Path: dbPath})
}

// NewDialect returns the dialect for a configured database type
func NewDialect(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Open connects to the configured database and brings its schema up to date
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := NewDialect(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(DialectConfig{Path: cfg.Path, URL: cfg.URL}))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	wrapped := &DB{DB: db, Dialect: dialect}
	if err := wrapped.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return wrapped, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Builder returns a squirrel statement builder bound to this connection
func (db *DB) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.Dialect.PlaceholderFormat()).RunWith(db.DB)
}

// QueryContext executes a query with automatic placeholder rewriting
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// QueryRowContext executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// ExecContext executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// InsertReturningID runs an INSERT and returns the new row's ID.
// PostgreSQL has no LastInsertId() so a RETURNING clause is used there.
func (db *DB) InsertReturningID(ctx context.Context, insert sq.InsertBuilder) (int64, error) {
	return insertReturningID(ctx, db.Dialect, insert.RunWith(db.DB))
}

func insertReturningID(ctx context.Context, dialect Dialect, insert sq.InsertBuilder) (int64, error) {
	insert = insert.PlaceholderFormat(dialect.PlaceholderFormat())

	if dialect.SupportsLastInsertId() {
		result, err := insert.ExecContext(ctx)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	var id int64
	if err := insert.Suffix("RETURNING id").QueryRowContext(ctx).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
