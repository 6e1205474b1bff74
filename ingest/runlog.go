package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juridigo/procpipe/store"
)

// RunLog persists per-file batch outcomes asynchronously. Records are
// buffered and flushed in batches so a slow disk never backpressures the
// workers; when the buffer is full, records are dropped (the aggregate
// summary still counts them).
type RunLog struct {
	store *store.Store
	ch    chan *store.FileRecord
	done  chan struct{}
	once  sync.Once
}

// NewRunLog starts the flush goroutine for one batch run.
func NewRunLog(st *store.Store) *RunLog {
	l := &RunLog{
		store: st,
		ch:    make(chan *store.FileRecord, 1024),
		done:  make(chan struct{}),
	}
	go l.flushLoop()
	return l
}

// Record queues one per-file outcome. Non-blocking.
func (l *RunLog) Record(rec *store.FileRecord) {
	select {
	case l.ch <- rec:
	default:
		// buffer full; drop rather than stall the workers
	}
}

// Close drains the buffer and stops the flush goroutine.
func (l *RunLog) Close() error {
	l.once.Do(func() {
		close(l.ch)
		<-l.done
	})
	return nil
}

func (l *RunLog) flushLoop() {
	defer close(l.done)

	batch := make([]*store.FileRecord, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := l.store.InsertFileRecords(context.Background(), batch); err != nil {
			slog.Error("run log: flush", "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-l.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= 64 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
