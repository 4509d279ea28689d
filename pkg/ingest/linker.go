package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkoutso/lexitheras/pkg/db"
	"github.com/dkoutso/lexitheras/pkg/lemma"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Resolver maps one modern lemma to a canonical dictionary key. Implemented
// by resolver.Resolver; tests substitute a table-driven fake.
type Resolver interface {
	Resolve(l *lemma.Lemma) (string, bool)
}

// Linker runs the resolution pipeline: workers resolve lemmas in parallel
// against the read-only index, and an ordered consumer persists the links in
// batched transactions. The index never changes during a run, so workers
// share it without locks.
type Linker struct {
	DB        *sql.DB
	Resolver  Resolver
	BatchSize int
	Workers   int
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called periodically with the number of processed lemmas
	// and the total.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewLinker creates a Linker with working defaults.
func NewLinker(conn *sql.DB, res Resolver) *Linker {
	return &Linker{
		DB:        conn,
		Resolver:  res,
		BatchSize: 50,
		Workers:   4,
	}
}

// resolvedLemma is one worker result. Unresolved lemmas flow through with
// OK false so the consumer's ordered buffer stays gap-free.
type resolvedLemma struct {
	Index int
	Text  string
	Key   string
	OK    bool
}

// Run resolves every lemma and persists the successful links. Returns the
// number of newly linked lemmas; already linked rows are left untouched and
// unresolved lemmas are skipped silently.
func (lk *Linker) Run(ctx context.Context, lemmas []lemma.Lemma) (int, error) {
	total := len(lemmas)
	if total == 0 {
		return 0, nil
	}

	var wp WorkerPoolInterface
	if lk.PoolFactory != nil {
		wp = lk.PoolFactory(lk.Workers, lk.Workers*2)
	} else {
		wp = NewWorkerPool(lk.Workers, lk.Workers*2)
	}
	resultCh := make(chan resolvedLemma, lk.Workers*2)
	doneCh := make(chan error, 1)

	var linked int64

	bw := NewBatchWriter(lk.DB, lk.BatchSize, 100*time.Millisecond)
	var batchErr error
	var batchErrMu sync.Mutex
	bw.OnError = func(e error) {
		batchErrMu.Lock()
		if batchErr == nil {
			batchErr = e
		}
		batchErrMu.Unlock()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = bw.Close() }()

	wp.Start(ctx)

	// Consumer: drain worker results into index order, persist links.
	go func() {
		defer close(doneCh)
		buffer := make(map[int]resolvedLemma)
		nextIdx := 0

		flush := func() error {
			for {
				res, ok := buffer[nextIdx]
				if !ok {
					return nil
				}
				delete(buffer, nextIdx)

				if res.OK {
					current := res
					err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
						entryID, err := db.GetEntryIDByKey(tx, current.Key)
						if err == sql.ErrNoRows {
							return nil
						}
						if err != nil {
							return fmt.Errorf("entry lookup %s: %w", current.Key, err)
						}
						row, err := db.GetLemma(tx, current.Text)
						if err == sql.ErrNoRows {
							return nil
						}
						if err != nil {
							return fmt.Errorf("lemma lookup %s: %w", current.Text, err)
						}
						ok, err := db.LinkLemma(tx, row.ID, entryID)
						if err != nil {
							return fmt.Errorf("link %s: %w", current.Text, err)
						}
						if ok {
							atomic.AddInt64(&linked, 1)
						}
						return nil
					})
					if err != nil {
						return err
					}
				}

				if lk.OnProgress != nil && (nextIdx+1)%lk.BatchSize == 0 {
					lk.OnProgress(nextIdx+1, total)
				}
				nextIdx++
			}
		}

		for {
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			case res, ok := <-resultCh:
				if !ok {
					if err := flush(); err != nil {
						cancel()
						doneCh <- err
						return
					}
					if lk.OnProgress != nil {
						lk.OnProgress(total, total)
					}
					doneCh <- nil
					return
				}
				buffer[res.Index] = res
				if err := flush(); err != nil {
					cancel()
					doneCh <- err
					return
				}
			}
		}
	}()

	// Producer: one resolve job per lemma.
	var submitErr error
Loop:
	for i := range lemmas {
		idx := i
		l := lemmas[i]
		job := func(ctx context.Context) error {
			res := resolvedLemma{Index: idx, Text: l.Text}
			res.Key, res.OK = lk.Resolver.Resolve(&l)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err == ctx.Err() || err == ErrPoolClosed {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	// No more jobs; once the workers drain, the consumer sees EOF.
	wp.Close()
	close(resultCh)

	consumerErr := <-doneCh
	if err := bw.Close(); err != nil && err != ErrBatchWriterClosed && consumerErr == nil {
		consumerErr = err
	}
	batchErrMu.Lock()
	if batchErr != nil && consumerErr == nil {
		consumerErr = batchErr
	}
	batchErrMu.Unlock()
	if submitErr != nil {
		// The producer failure is the root cause; the consumer only saw the
		// cancellation it triggered.
		consumerErr = submitErr
	}

	if lk.Logger != nil && consumerErr == nil {
		lk.Logger.Printf("linked %d of %d lemmas", atomic.LoadInt64(&linked), total)
	}
	return int(atomic.LoadInt64(&linked)), consumerErr
}
