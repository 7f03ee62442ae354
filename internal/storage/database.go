// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/schemaforge/schemaforge/config"
	"github.com/schemaforge/schemaforge/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ConnectMetadataDB initializes the connection pool for the metadata SQLite
// database and ensures the required tables exist.
func ConnectMetadataDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.DataDir, cfg.MetadataDbFile)
	customLog.Printf("Storage: Initializing metadata database: %s", dbPath)

	// Ensure the data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.DataDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Foreign keys on, WAL mode and a 5s busy timeout for concurrent handlers
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		customLog.Warnf("Storage: Failed to open metadata db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}

	// Verify connection is working
	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping metadata db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to metadata db: %w", err)
	}
	customLog.Println("Storage: Metadata database connection successful.")

	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY NOT NULL,
		username TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		is_active INTEGER NOT NULL DEFAULT 1,
		api_key TEXT UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`},
		{"schemas", `
	CREATE TABLE IF NOT EXISTS schemas (
		id TEXT PRIMARY KEY NOT NULL,
		user_id TEXT NOT NULL,
		collection_name TEXT NOT NULL,
		fields TEXT NOT NULL,
		endpoint_protection TEXT NOT NULL,
		auth_config TEXT,
		auth_system_id TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, collection_name),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);`},
		{"notifications", `
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'info',
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);`},
		{"api_usage", `
	CREATE TABLE IF NOT EXISTS api_usage (
		user_id TEXT NOT NULL,
		period TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, period),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);`},
	}

	for _, stmt := range statements {
		if _, err = db.Exec(stmt.sql); err != nil {
			db.Close()
			customLog.Warnf("Storage: Failed to create %s table: %v", stmt.name, err)
			return nil, fmt.Errorf("failed to ensure %s table: %w", stmt.name, err)
		}
	}
	customLog.Println("Storage: Metadata tables ensured.")

	return db, nil
}
