package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/juridigo/procpipe/idgen"
	"github.com/juridigo/procpipe/store"
)

// Summary aggregates a batch run. Existing is derived: documents whose
// process was already in the store.
type Summary struct {
	RunID     string              `json:"run_id"`
	Root      string              `json:"root"`
	Processed int                 `json:"processed"`
	Created   int                 `json:"created"`
	Existing  int                 `json:"existing"`
	NoNumber  int                 `json:"no_number"`
	Failed    int                 `json:"failed"`
	Outcomes  []*store.FileRecord `json:"outcomes"`
}

// BatchConfig configures a batch driver.
type BatchConfig struct {
	// Workers bounds the ingestion pool. Default: 4.
	Workers int
	// Logger for batch progress. Defaults to slog.Default().
	Logger *slog.Logger
	// NewRunID generates run identifiers. Defaults to prefixed UUIDv7.
	NewRunID idgen.Generator
}

func (c *BatchConfig) defaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewRunID == nil {
		c.NewRunID = idgen.Prefixed("run_", idgen.UUIDv7())
	}
}

// Batch ingests a file or a directory tree of documents.
type Batch struct {
	ing    *Ingester
	store  *store.Store
	cfg    BatchConfig
	logger *slog.Logger
}

// NewBatch creates a batch driver sharing the Ingester's store.
func NewBatch(st *store.Store, cfg BatchConfig) *Batch {
	cfg.defaults()
	return &Batch{
		ing:    New(st, Config{Logger: cfg.Logger}),
		store:  st,
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Run ingests path, which may be a single document or a directory walked
// recursively for .html/.htm files. A missing path is an error; an empty
// directory yields an empty summary (the caller reports the warning).
// Per-file failures are captured in the summary and never abort the run.
func (b *Batch) Run(ctx context.Context, path string) (*Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: input path: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = discoverDocuments(path, b.logger)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{path}
	}

	summary := &Summary{RunID: b.cfg.NewRunID(), Root: path}
	if err := b.store.BeginRun(ctx, summary.RunID, path); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		b.logger.Warn("no documents found", "root", path)
		return summary, b.finish(ctx, summary)
	}

	runlog := NewRunLog(b.store)

	jobs := make(chan string)
	outcomes := make(chan *store.FileRecord)

	var wg sync.WaitGroup
	for range b.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				outcomes <- b.ingestOne(ctx, summary.RunID, file)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for rec := range outcomes {
		summary.Processed++
		switch rec.Status {
		case store.FileCreated:
			summary.Created++
		case store.FileExisting:
			summary.Existing++
		case store.FileNoNumber:
			summary.NoNumber++
		case store.FileError:
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, rec)
		runlog.Record(rec)
	}
	runlog.Close()

	sort.Slice(summary.Outcomes, func(i, j int) bool {
		return summary.Outcomes[i].Path < summary.Outcomes[j].Path
	})

	return summary, b.finish(ctx, summary)
}

// ingestOne runs a single file through the pipeline, converting every
// failure into a per-file record.
func (b *Batch) ingestOne(ctx context.Context, runID, path string) *store.FileRecord {
	rec := &store.FileRecord{RunID: runID, Path: path}

	res, err := b.ing.IngestFile(ctx, path)
	if err != nil {
		rec.Status = store.FileError
		rec.Detail = err.Error()
		b.logger.Error("ingest failed", "path", path, "error", err)
		return rec
	}

	rec.Status = res.Status
	rec.ProcessNumber = res.ProcessNumber
	if res.Status == store.FileNoNumber {
		rec.Detail = "no process number found"
	}
	return rec
}

func (b *Batch) finish(ctx context.Context, s *Summary) error {
	return b.store.FinishRun(ctx, &store.RunRecord{
		ID:        s.RunID,
		Root:      s.Root,
		Processed: s.Processed,
		Created:   s.Created,
		Skipped:   s.NoNumber,
		Failed:    s.Failed,
	})
}

// discoverDocuments walks root recursively and returns every .html/.htm
// file in lexical order.
func discoverDocuments(root string, logger *slog.Logger) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, the rest of the batch continues.
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	return files, nil
}
