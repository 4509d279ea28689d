package translate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dkoutso/lexitheras/pkg/db"
)

// Augmenter pages through lemmas missing an English definition and fills
// them in. Progress is checkpointed by lemma id after every batch, and
// identical Greek definitions are translated once per run via the cache.
type Augmenter struct {
	DB             *sql.DB
	Client         Client
	BatchSize      int
	CheckpointPath string
	// Interval is the pause between batches. Zero disables rate limiting.
	Interval time.Duration
	// Logger is used for batch progress and skipped batches. nil means no logging.
	Logger *log.Logger

	cache map[string]string
}

// NewAugmenter creates an Augmenter with the defaults used in production.
func NewAugmenter(conn *sql.DB, client Client, checkpointPath string) *Augmenter {
	return &Augmenter{
		DB:             conn,
		Client:         client,
		BatchSize:      50,
		CheckpointPath: checkpointPath,
		Interval:       time.Second,
	}
}

// Run translates until the table is exhausted or ctx is canceled. A batch
// that fails with a retryable error is skipped (the cursor still advances,
// so the run makes progress); a non-retryable error aborts. Returns the
// number of lemmas updated.
func (a *Augmenter) Run(ctx context.Context) (int, error) {
	if a.BatchSize <= 0 {
		a.BatchSize = 50
	}
	if a.cache == nil {
		a.cache = make(map[string]string)
	}

	cursor, err := a.loadCheckpoint()
	if err != nil {
		return 0, err
	}
	if cursor > 0 && a.Logger != nil {
		a.Logger.Printf("resuming translation after lemma id %d", cursor)
	}

	updated := 0
	for {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		batch, err := db.LemmasMissingEnglish(a.DB, cursor, a.BatchSize)
		if err != nil {
			return updated, fmt.Errorf("load batch after id %d: %w", cursor, err)
		}
		if len(batch) == 0 {
			// Table exhausted. Clearing the checkpoint lets the next run
			// start over and pick up rows skipped by failed batches.
			return updated, a.clearCheckpoint()
		}

		n, err := a.translateBatch(ctx, batch)
		if err != nil {
			if !IsRetryable(err) {
				return updated, err
			}
			if a.Logger != nil {
				a.Logger.Printf("skipping batch after id %d: %v", cursor, err)
			}
		}
		updated += n

		// Advance past the batch even when it failed; a stuck batch must
		// not wedge the whole run. Re-running later retries skipped rows.
		cursor = batch[len(batch)-1].ID
		if err := a.saveCheckpoint(cursor); err != nil {
			return updated, err
		}

		if a.Interval > 0 {
			select {
			case <-ctx.Done():
				return updated, ctx.Err()
			case <-time.After(a.Interval):
			}
		}
	}
}

// translateBatch resolves what it can from the cache, sends the rest to the
// client, and persists the results.
func (a *Augmenter) translateBatch(ctx context.Context, batch []db.LemmaRecord) (int, error) {
	var pending []string
	seen := make(map[string]struct{})
	for _, l := range batch {
		text := strings.TrimSpace(l.GreekDef)
		if text == "" {
			continue
		}
		if _, ok := a.cache[text]; ok {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		pending = append(pending, text)
	}

	if len(pending) > 0 {
		translated, err := a.Client.TranslateBatch(ctx, pending)
		if err != nil {
			return 0, err
		}
		for i, text := range pending {
			a.cache[text] = translated[i]
		}
	}

	updated := 0
	for _, l := range batch {
		english, ok := a.cache[strings.TrimSpace(l.GreekDef)]
		if !ok || english == "" {
			continue
		}
		if err := db.UpdateLemmaEnglish(a.DB, l.ID, english); err != nil {
			return updated, fmt.Errorf("update lemma %d: %w", l.ID, err)
		}
		updated++
	}
	return updated, nil
}

func (a *Augmenter) loadCheckpoint() (int64, error) {
	if a.CheckpointPath == "" {
		return 0, nil
	}
	data, err := os.ReadFile(a.CheckpointPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %s: %w", a.CheckpointPath, err)
	}
	return id, nil
}

func (a *Augmenter) saveCheckpoint(id int64) error {
	if a.CheckpointPath == "" {
		return nil
	}
	return os.WriteFile(a.CheckpointPath, []byte(strconv.FormatInt(id, 10)), 0o644)
}

func (a *Augmenter) clearCheckpoint() error {
	if a.CheckpointPath == "" {
		return nil
	}
	if err := os.Remove(a.CheckpointPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
