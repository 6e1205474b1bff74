// Package ingest merges extracted process data into the store and drives
// batch ingestion over files and directories.
//
// One document is one unit of work: extract, get-or-create the process,
// get-or-create each party, archive a snapshot. Documents never block on
// each other and a failure in one never aborts the rest of a batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/juridigo/procpipe/extractor"
	"github.com/juridigo/procpipe/store"
)

// Result reports the outcome of ingesting one document.
type Result struct {
	Status         store.FileStatus `json:"status"`
	ProcessNumber  string           `json:"process_number,omitempty"`
	ProcessCreated bool             `json:"process_created"`
	PartiesCreated int              `json:"parties_created"`
	PartiesSeen    int              `json:"parties_seen"`
}

// Config configures an Ingester.
type Config struct {
	// Logger for per-document messages. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Ingester runs the extract-then-merge pipeline for single documents.
// Safe for concurrent use across independent documents.
type Ingester struct {
	store     *store.Store
	extractor *extractor.Extractor
	sanitizer *bluemonday.Policy
	md        *converter.Converter
	logger    *slog.Logger
}

// New creates an Ingester bound to the given store.
func New(st *store.Store, cfg Config) *Ingester {
	cfg.defaults()
	return &Ingester{
		store:     st,
		extractor: extractor.New(extractor.Config{Logger: cfg.Logger}),
		sanitizer: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: cfg.Logger,
	}
}

// IngestFile reads and ingests one document file. An unreadable file is
// an error for this document only; callers report it and move on.
func (ing *Ingester) IngestFile(ctx context.Context, path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}
	return ing.IngestHTML(ctx, path, raw)
}

// IngestHTML extracts raw markup and merges the result into the store.
// A document with no recognizable case number yields StatusNoNumber, not
// an error. Store failures propagate; no partial cleanup is attempted.
func (ing *Ingester) IngestHTML(ctx context.Context, source string, raw []byte) (*Result, error) {
	data, err := ing.extractor.ExtractBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse %s: %w", source, err)
	}
	if data.Number == "" {
		ing.logger.Warn("no process number found", "source", source)
		return &Result{Status: store.FileNoNumber}, nil
	}

	proc, created, err := ing.store.GetOrCreateProcess(ctx, data.Number, store.ProcessDefaults{
		Class:   data.Class,
		Subject: data.Subject,
		Judge:   data.Judge,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		ProcessNumber:  proc.Number,
		ProcessCreated: created,
		PartiesSeen:    len(data.Parties),
	}
	if created {
		res.Status = store.FileCreated
		ing.logger.Info("created process", "number", proc.Number, "source", source)
	} else {
		res.Status = store.FileExisting
		ing.logger.Info("process already exists", "number", proc.Number, "source", source)
	}

	for _, pd := range data.Parties {
		_, pcreated, err := ing.store.GetOrCreateParty(ctx, proc.ID, pd.Name, pd.Document, pd.Category)
		if err != nil {
			return nil, err
		}
		if pcreated {
			res.PartiesCreated++
			ing.logger.Debug("created party", "number", proc.Number, "name", pd.Name, "category", pd.Category)
		}
	}

	ing.archiveSnapshot(ctx, proc.ID, source, raw)
	return res, nil
}

// archiveSnapshot stores a sanitized copy of the source document with a
// markdown preview. Snapshot failures are logged, never fatal: the merge
// already succeeded.
func (ing *Ingester) archiveSnapshot(ctx context.Context, processID int64, source string, raw []byte) {
	clean := ing.sanitizer.Sanitize(string(raw))

	markdown, err := ing.md.ConvertString(clean)
	if err != nil || strings.TrimSpace(markdown) == "" {
		markdown = ""
	}

	_, err = ing.store.SaveSnapshot(ctx, &store.Snapshot{
		ProcessID: processID,
		Source:    source,
		SHA256:    store.HashDocument(raw),
		HTML:      clean,
		Markdown:  strings.TrimSpace(markdown),
	})
	if err != nil {
		ing.logger.Warn("snapshot not archived", "source", source, "error", err)
	}
}
