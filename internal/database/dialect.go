package database

import (
	"database/sql"
	"regexp"
	"strconv"

	sq "github.com/Masterminds/squirrel"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// Name returns the canonical backend name ("sqlite", "postgres", "mysql")
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// PlaceholderFormat is the squirrel placeholder style for built queries
	PlaceholderFormat() sq.PlaceholderFormat

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertSuffix returns the clause turning an INSERT into an update of
	// columns when key already exists
	UpsertSuffix(key string, columns ...string) string

	// LockForInsert returns the statement that, run inside a transaction,
	// keeps other transactions from inserting into table until commit.
	// Empty when transactions are already serialised.
	LockForInsert(table string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictSuffix is the upsert clause shared by SQLite and PostgreSQL
func onConflictSuffix(key string, columns []string) string {
	clause := "ON CONFLICT (" + key + ") DO UPDATE SET "
	for i, col := range columns {
		if i > 0 {
			clause += ", "
		}
		clause += col + " = excluded." + col
	}
	return clause
}
