package database

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		dialect      Dialect
		name         string
		driver       string
		lastInsertID bool
		placeholder  sq.PlaceholderFormat
	}{
		{NewSQLiteDialect(), "sqlite", "sqlite3", true, sq.Question},
		{NewPostgresDialect(), "postgres", "postgres", false, sq.Dollar},
		{NewMySQLDialect(), "mysql", "mysql", true, sq.Question},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Name(); got != tt.name {
				t.Errorf("Name() = %v, want %v", got, tt.name)
			}
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.name {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.name)
			}
			if got := tt.dialect.PlaceholderFormat(); got != tt.placeholder {
				t.Errorf("PlaceholderFormat() = %v, want %v", got, tt.placeholder)
			}
		})
	}
}

func TestNewDialect(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3", "", "postgres", "postgresql", "mysql"} {
		if _, err := NewDialect(name); err != nil {
			t.Errorf("NewDialect(%q) error = %v", name, err)
		}
	}
	if _, err := NewDialect("oracle"); err == nil {
		t.Error("NewDialect(oracle) should fail")
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM dictations WHERE id = ?",
			expected: "SELECT * FROM dictations WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM dictations WHERE id = ?",
			expected: "SELECT * FROM dictations WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO dictations (title, language) VALUES (?, ?)",
			expected: "INSERT INTO dictations (title, language) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE dictations SET title = ?, language = ? WHERE id = ?",
			expected: "UPDATE dictations SET title = ?, language = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpsertSuffix(t *testing.T) {
	got := NewPostgresDialect().UpsertSuffix("id", "title", "updated_at")
	want := "ON CONFLICT (id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at"
	if got != want {
		t.Errorf("postgres UpsertSuffix() = %q, want %q", got, want)
	}

	got = NewMySQLDialect().UpsertSuffix("id", "title")
	if got != "ON DUPLICATE KEY UPDATE title = VALUES(title)" {
		t.Errorf("mysql UpsertSuffix() = %q", got)
	}
}

func TestLockForInsert(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{NewSQLiteDialect(), ""},
		{NewPostgresDialect(), "LOCK TABLE dictations IN SHARE ROW EXCLUSIVE MODE"},
		{NewMySQLDialect(), "SELECT COUNT(*) FROM dictations FOR UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			if got := tt.dialect.LockForInsert("dictations"); got != tt.want {
				t.Errorf("LockForInsert() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	sqlite := NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/d.db"})
	if !strings.Contains(sqlite, "_foreign_keys=on") {
		t.Errorf("sqlite DSN should enable foreign keys, got %q", sqlite)
	}
	if !strings.Contains(sqlite, "_txlock=immediate") {
		t.Errorf("sqlite DSN should begin transactions immediately, got %q", sqlite)
	}

	mysqlDSN := NewMySQLDialect().DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/dictee"})
	if !strings.Contains(mysqlDSN, "parseTime=true") {
		t.Errorf("mysql DSN should set parseTime, got %q", mysqlDSN)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (x INT);\n\nCREATE INDEX i ON a(x);\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE INDEX i ON a(x)" {
		t.Errorf("unexpected statement %q", stmts[1])
	}
}
