package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// UpsertEntry inserts a dictionary entry or merges it into an existing row
// with the same canonical key. The first stored non-empty value of each
// field wins; re-ingesting a corpus never clobbers earlier data.
func UpsertEntry(db DBExecutor, e *EntryRecord) (int64, error) {
	key := strings.TrimSpace(e.CanonicalKey)
	if key == "" {
		return 0, fmt.Errorf("canonical key must be non-empty")
	}

	var id int64
	query := `INSERT INTO lsj_entries (canonical_key, headword, definition, aorist, citations)
			  VALUES (?, ?, ?, ?, ?)
			  ON CONFLICT(canonical_key)
			  DO UPDATE SET
			    headword   = COALESCE(NULLIF(lsj_entries.headword, ''), excluded.headword),
			    definition = COALESCE(NULLIF(lsj_entries.definition, ''), excluded.definition),
			    aorist     = COALESCE(NULLIF(lsj_entries.aorist, ''), excluded.aorist),
			    citations  = COALESCE(NULLIF(lsj_entries.citations, ''), excluded.citations)
			  RETURNING id`

	err := db.QueryRow(query, key, e.Headword, e.Definition, e.Aorist, e.Citations).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert entry %s: %w", key, err)
	}
	return id, nil
}

// CreateOrGetLemma inserts a lemma row or merges into the existing row for
// the same surface text, returning its id. Empty incoming fields never
// overwrite stored values.
func CreateOrGetLemma(db DBExecutor, l *LemmaRecord) (int64, error) {
	text := strings.TrimSpace(l.Text)
	if text == "" {
		return 0, fmt.Errorf("lemma text must be non-empty")
	}

	var id int64
	query := `INSERT INTO lemmas (lemma_text, pos, ipa, etymology_text, etymology_json, greek_def, english_def)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(lemma_text)
			  DO UPDATE SET
			    pos            = COALESCE(NULLIF(lemmas.pos, ''), excluded.pos),
			    ipa            = COALESCE(NULLIF(lemmas.ipa, ''), excluded.ipa),
			    etymology_text = COALESCE(NULLIF(lemmas.etymology_text, ''), excluded.etymology_text),
			    etymology_json = COALESCE(NULLIF(lemmas.etymology_json, ''), excluded.etymology_json),
			    greek_def      = COALESCE(NULLIF(lemmas.greek_def, ''), excluded.greek_def),
			    english_def    = COALESCE(NULLIF(lemmas.english_def, ''), excluded.english_def)
			  RETURNING id`

	err := db.QueryRow(query, text, l.POS, l.IPA, l.EtymologyText, l.EtymologyJSON, l.GreekDef, l.EnglishDef).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert lemma %s: %w", text, err)
	}
	return id, nil
}

// InsertRelation records a child-to-parent form edge. Duplicate edges are
// ignored via the table's UNIQUE constraint.
func InsertRelation(db DBExecutor, childID int64, parentText, relationType string) error {
	if childID <= 0 {
		return fmt.Errorf("childID must be positive")
	}
	_, err := db.Exec(
		`INSERT OR IGNORE INTO relations (child_id, parent_text, relation_type) VALUES (?, ?, ?)`,
		childID, parentText, relationType,
	)
	return err
}

// GetEntryIDByKey resolves a canonical key to its entry id.
func GetEntryIDByKey(db DBExecutor, canonicalKey string) (int64, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM lsj_entries WHERE canonical_key = ?`, canonicalKey).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// LinkLemma sets the lemma's dictionary link only when no link exists yet.
// Returns false when the lemma was already linked; an established link is
// never overwritten implicitly.
func LinkLemma(db DBExecutor, lemmaID, entryID int64) (bool, error) {
	if lemmaID <= 0 || entryID <= 0 {
		return false, fmt.Errorf("lemmaID and entryID must be positive")
	}
	res, err := db.Exec(`UPDATE lemmas SET lsj_id = ? WHERE id = ? AND lsj_id IS NULL`, entryID, lemmaID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RelinkLemma overwrites the lemma's dictionary link unconditionally. This
// is the explicit repair path; batch resolution always uses LinkLemma.
func RelinkLemma(db DBExecutor, lemmaID, entryID int64) error {
	if lemmaID <= 0 || entryID <= 0 {
		return fmt.Errorf("lemmaID and entryID must be positive")
	}
	_, err := db.Exec(`UPDATE lemmas SET lsj_id = ? WHERE id = ?`, entryID, lemmaID)
	return err
}

// GetLemma loads one lemma row by surface text.
func GetLemma(db DBExecutor, text string) (*LemmaRecord, error) {
	row := db.QueryRow(
		`SELECT id, lemma_text, pos, ipa, etymology_text, etymology_json, greek_def, english_def, lsj_id
		 FROM lemmas WHERE lemma_text = ?`, text)
	return scanLemma(row)
}

// LemmasMissingEnglish pages through lemmas that have a Greek definition but
// no English one yet, in ascending id order starting after afterID. The id
// cursor is what makes the augmentation step resumable.
func LemmasMissingEnglish(db DBExecutor, afterID int64, limit int) ([]LemmaRecord, error) {
	rows, err := db.Query(
		`SELECT id, lemma_text, pos, ipa, etymology_text, etymology_json, greek_def, english_def, lsj_id
		 FROM lemmas
		 WHERE IFNULL(english_def, '') = '' AND IFNULL(greek_def, '') <> '' AND id > ?
		 ORDER BY id
		 LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LemmaRecord
	for rows.Next() {
		var l LemmaRecord
		var pos, ipa, etText, etJSON, greek, english sql.NullString
		if err := rows.Scan(&l.ID, &l.Text, &pos, &ipa, &etText, &etJSON, &greek, &english, &l.LSJID); err != nil {
			return nil, err
		}
		l.POS = pos.String
		l.IPA = ipa.String
		l.EtymologyText = etText.String
		l.EtymologyJSON = etJSON.String
		l.GreekDef = greek.String
		l.EnglishDef = english.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLemmaEnglish stores the translated definition.
func UpdateLemmaEnglish(db DBExecutor, lemmaID int64, english string) error {
	if lemmaID <= 0 {
		return fmt.Errorf("lemmaID must be positive")
	}
	_, err := db.Exec(`UPDATE lemmas SET english_def = ? WHERE id = ?`, english, lemmaID)
	return err
}

// LinkStats reports how many lemmas are linked out of the total.
func LinkStats(db DBExecutor) (linked, total int64, err error) {
	if err = db.QueryRow(`SELECT COUNT(*) FROM lemmas`).Scan(&total); err != nil {
		return 0, 0, err
	}
	if err = db.QueryRow(`SELECT COUNT(*) FROM lemmas WHERE lsj_id IS NOT NULL`).Scan(&linked); err != nil {
		return 0, 0, err
	}
	return linked, total, nil
}

func scanLemma(row *sql.Row) (*LemmaRecord, error) {
	var l LemmaRecord
	var pos, ipa, etText, etJSON, greek, english sql.NullString
	if err := row.Scan(&l.ID, &l.Text, &pos, &ipa, &etText, &etJSON, &greek, &english, &l.LSJID); err != nil {
		return nil, err
	}
	l.POS = pos.String
	l.IPA = ipa.String
	l.EtymologyText = etText.String
	l.EtymologyJSON = etJSON.String
	l.GreekDef = greek.String
	l.EnglishDef = english.String
	return &l, nil
}
