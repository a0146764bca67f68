package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"pushledger/internal/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// Standalone schema tool: prepares a database file ahead of first service
// start, for deployments where the service user has no write access to the
// data directory.
func main() {
	dbPath := flag.String("db", "./pushledger.db", "Path to the database file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// The schema only uses IF NOT EXISTS statements, so re-running against an
	// already-initialized database is a no-op.
	if _, err := db.Exec(migrations.GetInitialSchema()); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	fmt.Printf("Schema applied to %s\n", *dbPath)
}
