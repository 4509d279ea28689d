// Package ingest loads the indexed lexicon and the modern lemma table into
// sqlite and runs the resolution pipeline that links the two. CPU-bound work
// fans out over a worker pool; every write funnels through one BatchWriter.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkoutso/lexitheras/pkg/db"
	"github.com/dkoutso/lexitheras/pkg/lemma"
	"github.com/dkoutso/lexitheras/pkg/lexicon"
)

// PersistEntries writes every indexed dictionary entry, storing the curated
// citation gallery as JSON. Returns the number of entries submitted.
func PersistEntries(ctx context.Context, conn *sql.DB, ix *lexicon.Indexer, batchSize int) (int, error) {
	bw := NewBatchWriter(conn, batchSize, 100*time.Millisecond)

	count := 0
	for _, e := range ix.Entries() {
		select {
		case <-ctx.Done():
			_ = bw.Close()
			return count, ctx.Err()
		default:
		}

		gallery, err := json.Marshal(ix.GalleryFor(e))
		if err != nil {
			_ = bw.Close()
			return count, fmt.Errorf("marshal gallery for %s: %w", e.CanonicalKey, err)
		}
		entry := e
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			_, err := db.UpsertEntry(tx, &db.EntryRecord{
				CanonicalKey: entry.CanonicalKey,
				Headword:     entry.Headword,
				Definition:   entry.Definition,
				Aorist:       entry.Aorist,
				Citations:    string(gallery),
			})
			return err
		}); err != nil {
			_ = bw.Close()
			return count, err
		}
		count++
	}
	return count, bw.Close()
}

// PersistLemmas writes the lemma rows, then the form edges. Edges go second
// because they need the child rows' ids.
func PersistLemmas(ctx context.Context, conn *sql.DB, lemmas []lemma.Lemma, edges []lemma.RelationEdge, batchSize int) (int, error) {
	bw := NewBatchWriter(conn, batchSize, 100*time.Millisecond)

	count := 0
	for i := range lemmas {
		select {
		case <-ctx.Done():
			_ = bw.Close()
			return count, ctx.Err()
		default:
		}

		l := lemmas[i]
		templates, err := json.Marshal(l.Templates)
		if err != nil {
			_ = bw.Close()
			return count, fmt.Errorf("marshal templates for %s: %w", l.Text, err)
		}
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			_, err := db.CreateOrGetLemma(tx, &db.LemmaRecord{
				Text:          l.Text,
				POS:           l.POS,
				IPA:           l.IPA,
				EtymologyText: l.EtymologyText,
				EtymologyJSON: string(templates),
				GreekDef:      l.Gloss(),
			})
			return err
		}); err != nil {
			_ = bw.Close()
			return count, err
		}
		count++
	}
	if err := bw.Close(); err != nil {
		return count, err
	}

	bw = NewBatchWriter(conn, batchSize, 100*time.Millisecond)
	for i := range edges {
		edge := edges[i]
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			child, err := db.GetLemma(tx, edge.Child)
			if err == sql.ErrNoRows {
				return nil
			}
			if err != nil {
				return err
			}
			return db.InsertRelation(tx, child.ID, edge.ParentText, edge.RelationType)
		}); err != nil {
			_ = bw.Close()
			return count, err
		}
	}
	return count, bw.Close()
}
