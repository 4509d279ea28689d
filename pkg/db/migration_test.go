package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// TestInitDBCreatesSchema verifies InitDB creates the three tables with the
// columns the store functions depend on.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	for _, table := range []string{"lsj_entries", "lemmas", "relations"} {
		var name string
		if err := dbConn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}

	cols := tableColumns(t, dbConn, "lemmas")
	for _, want := range []string{"lemma_text", "pos", "ipa", "etymology_text", "etymology_json", "greek_def", "english_def", "lsj_id"} {
		if !cols[want] {
			t.Fatalf("expected %s in lemmas, got %v", want, cols)
		}
	}

	cols = tableColumns(t, dbConn, "lsj_entries")
	for _, want := range []string{"canonical_key", "headword", "definition", "aorist", "citations"} {
		if !cols[want] {
			t.Fatalf("expected %s in lsj_entries, got %v", want, cols)
		}
	}
}

// TestInitDBIdempotent ensures migrations can run on every startup.
func TestInitDBIdempotent(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("first InitDB: %v", err)
	}
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
}

func tableColumns(t *testing.T, dbConn *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := dbConn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragma: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}
