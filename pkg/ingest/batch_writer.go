package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// WriteFunc is a callback that performs database writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers write operations and flushes them in batches, each
// batch inside one sqlite transaction. Per-row transactions dominate the
// cost of bulk entry and lemma loads; batching amortizes the fsync.
type BatchWriter struct {
	mu          sync.Mutex
	buf         []WriteFunc
	limit       int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	flushCh chan []WriteFunc
	db      *sql.DB

	// OnError observes asynchronous flush failures. The first error is also
	// retained and returned from Close.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter creates a BatchWriter that flushes when the buffer reaches
// bufferSize, and additionally every flushInterval when that is nonzero.
func NewBatchWriter(db *sql.DB, bufferSize int, flushInterval time.Duration) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		buf:     make([]WriteFunc, 0, bufferSize),
		limit:   bufferSize,
		ctx:     ctx,
		cancel:  cancel,
		flushCh: make(chan []WriteFunc, 2),
		db:      db,
	}

	bw.wg.Add(1)
	go bw.committer()

	if flushInterval > 0 {
		bw.flushTicker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.tickLoop()
	}
	return bw
}

// Submit enqueues a write function.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.limit {
		bw.flushLocked()
	}
	return nil
}

// flushLocked hands the buffered batch to the committer. Assumes bw.mu is
// held; blocking on a full flushCh propagates backpressure into Submit.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.limit)

	select {
	case bw.flushCh <- batch:
	case <-bw.ctx.Done():
		// Shutting down: the batch cannot be committed. Record it so the
		// caller learns about the data loss from Close.
		err := fmt.Errorf("batch writer: dropping batch of %d items due to context cancellation", len(batch))
		bw.recordErr(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.flushCh {
		if err := bw.executeBatch(batch); err != nil {
			bw.recordErr(err)
		}
	}
}

func (bw *BatchWriter) recordErr(err error) {
	bw.errMu.Lock()
	if bw.lastErr == nil {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	// Without a DB the callbacks run with a nil tx; tests use this mode.
	if bw.db == nil {
		for _, w := range batch {
			if err := w(bw.ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	// A batch already handed to the committer is flushed to completion even
	// while the writer is closing, hence the background context.
	ctx := context.Background()

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) tickLoop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.flushTicker.C:
			bw.mu.Lock()
			bw.flushLocked()
			bw.mu.Unlock()
		}
	}
}

// Close stops accepting submissions, flushes what is buffered, and waits for
// pending writes to complete. Returns the first asynchronous error seen.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.flushTicker != nil {
		bw.flushTicker.Stop()
	}
	bw.flushLocked()
	bw.mu.Unlock()

	bw.cancel()       // stop ticker loop
	close(bw.flushCh) // stop committer loop
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
