// Package db persists the indexed lexicon and the modern lemma table in
// sqlite. All write paths accept a DBExecutor so callers can batch them
// inside a transaction.
package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the sqlite database at path and applies migrations. WAL mode
// keeps concurrent readers cheap while the batch writer holds the single
// write transaction.
func Open(path string) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := InitDB(sqldb); err != nil {
		sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
