package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// postgres driver registration
	_ "github.com/lib/pq"
)

// NewConnection opens and verifies a Postgres connection pool. The pool is
// sized for a single bot process: a handful of event handlers plus the admin
// API.
func NewConnection(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
