package db

import "database/sql"

// EntryRecord is one dictionary entry row. Citations holds the curated
// gallery serialized as JSON.
type EntryRecord struct {
	ID           int64
	CanonicalKey string
	Headword     string
	Definition   string
	Aorist       string
	Citations    string
}

// LemmaRecord is one modern lemma row. LSJID is null until the resolver
// links the lemma to a dictionary entry.
type LemmaRecord struct {
	ID            int64
	Text          string
	POS           string
	IPA           string
	EtymologyText string
	EtymologyJSON string
	GreekDef      string
	EnglishDef    string
	LSJID         sql.NullInt64
}

// RelationRecord links a child lemma to the surface text of its parent form.
type RelationRecord struct {
	ID           int64
	ChildID      int64
	ParentText   string
	RelationType string
}
