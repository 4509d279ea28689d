package db

// migrationsSQL is the full schema, applied statement by statement. Every
// statement is idempotent so InitDB can run on every startup.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS lsj_entries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    canonical_key TEXT NOT NULL UNIQUE,
    headword      TEXT NOT NULL,
    definition    TEXT,
    aorist        TEXT,
    citations     TEXT
);

CREATE INDEX IF NOT EXISTS idx_lsj_entries_headword ON lsj_entries(headword);

CREATE TABLE IF NOT EXISTS lemmas (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    lemma_text     TEXT NOT NULL UNIQUE,
    pos            TEXT,
    ipa            TEXT,
    etymology_text TEXT,
    etymology_json TEXT,
    greek_def      TEXT,
    english_def    TEXT,
    lsj_id         INTEGER REFERENCES lsj_entries(id)
);

CREATE INDEX IF NOT EXISTS idx_lemmas_lsj_id ON lemmas(lsj_id);

CREATE TABLE IF NOT EXISTS relations (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    child_id      INTEGER NOT NULL REFERENCES lemmas(id),
    parent_text   TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    UNIQUE(child_id, parent_text, relation_type)
);
`
