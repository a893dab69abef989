package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverSQLite selects the embedded SQLite backend.
	DriverSQLite = "sqlite3"
	// DriverPostgres selects a PostgreSQL backend.
	DriverPostgres = "postgres"
)

// DB is a database handle that knows which SQL dialect it speaks.
type DB struct {
	*sql.DB
	driver string
}

// New opens a database connection for the given driver and DSN.
// For SQLite the DSN is a file path; foreign keys and a busy timeout are enabled
// and the pool is limited to a single connection so writers never contend.
func New(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if driver == DriverSQLite {
		// Enable foreign keys (disabled by default in SQLite)
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &DB{DB: db, driver: driver}, nil
}

// Driver returns the driver name the handle was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites '?' placeholders into the form expected by the driver.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(ctx context.Context, db *DB) error {
	blobType := "BLOB"
	if db.driver == DriverPostgres {
		blobType = "BYTEA"
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS drive_sync_state (
			folder_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS drive_files (
			folder_id TEXT NOT NULL,
			drive_file_id TEXT NOT NULL,
			name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			web_view_link TEXT,
			modified_time TEXT,
			md5_checksum TEXT,
			size_bytes BIGINT,
			status TEXT NOT NULL,
			error_message TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (folder_id, drive_file_id)
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS drive_chunks (
			id TEXT PRIMARY KEY,
			folder_id TEXT NOT NULL,
			drive_file_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding %s NOT NULL,
			metadata TEXT NOT NULL,
			UNIQUE (folder_id, drive_file_id, chunk_index),
			FOREIGN KEY (folder_id, drive_file_id) REFERENCES drive_files(folder_id, drive_file_id) ON DELETE CASCADE
		);`, blobType),
		`CREATE INDEX IF NOT EXISTS idx_drive_chunks_file ON drive_chunks (folder_id, drive_file_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
