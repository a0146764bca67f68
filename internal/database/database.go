package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pushledger/internal/migrations"
	"pushledger/internal/models"

	"github.com/mattn/go-sqlite3"
)

// Database is the durable message store. All mutation goes through
// InsertMessage; rows are never updated or deleted.
type Database struct {
	db *sql.DB
}

// New opens (creating if absent) the SQLite database at dbPath and applies
// the idempotent schema. Any failure here is a startup failure.
func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	// The busy timeout lets concurrent writers queue on the lock instead of
	// failing immediately with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.GetInitialSchema()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Ping reports store health for readiness checks
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// InsertMessage attempts to create the row for msg, stamping created_at with
// the current UTC time. The primary key on message_id makes this a single
// atomic conditional create: a conflicting row is left untouched and the
// insert reports created=false. There is deliberately no existence check
// before the write.
func (d *Database) InsertMessage(ctx context.Context, msg *models.Message) (bool, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	query := `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		msg.MessageID,
		msg.From,
		msg.To,
		msg.Ts,
		msg.Text,
		createdAt,
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	msg.CreatedAt = createdAt
	return true, nil
}
