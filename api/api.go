// Package api exposes the process store over HTTP (chi) and MCP.
//
// The query surface mirrors what the extraction pipeline produces:
// processes with derived party counts, parties with category labels and
// contacts, plus an ingestion endpoint and a spreadsheet export. All /api
// routes except login require a bearer session token.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/juridigo/procpipe/ingest"
	"github.com/juridigo/procpipe/store"
)

// Config configures a Service.
type Config struct {
	// Logger for request-level messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Service wires the store and ingester to the HTTP and MCP surfaces.
type Service struct {
	store    *store.Store
	ingester *ingest.Ingester
	sessions *sessionManager
	logger   *slog.Logger
}

// NewService creates the API service.
func NewService(st *store.Store, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		ingester: ingest.New(st, ingest.Config{Logger: logger}),
		sessions: newSessionManager(),
		logger:   logger,
	}
}

// Routes returns the service's HTTP router.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// Request logs share stderr with slog; stdout stays clean for the MCP
	// stdio transport.
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(os.Stderr, "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/api/auth/me", s.handleMe)

		r.Get("/api/processes", s.handleListProcesses)
		r.Get("/api/processes/{number}", s.handleGetProcess)
		r.Get("/api/processes/{number}/parties", s.handleListParties)

		r.Get("/api/parties/{id}/contacts", s.handleListContacts)
		r.Post("/api/parties/{id}/contacts", s.handleAddContact)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/export/processes.xlsx", s.handleExport)
	})

	return r
}

func (s *Service) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProcessFilter{
		Search: q.Get("search"),
		Class:  q.Get("class"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	procs, total, err := s.store.ListProcesses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if procs == nil {
		procs = []*store.Process{}
	}
	filter.Normalize()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
		"results":   procs,
	})
}

func (s *Service) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	proc, err := s.store.GetProcess(r.Context(), number)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	parties, err := s.store.ListParties(r.Context(), proc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if parties == nil {
		parties = []*store.Party{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"process": proc,
		"parties": parties,
	})
}

func (s *Service) handleListParties(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	proc, err := s.store.GetProcess(r.Context(), number)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	parties, err := s.store.ListParties(r.Context(), proc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type partyWithContacts struct {
		*store.Party
		Contacts []*store.PartyContact `json:"contacts"`
	}
	out := make([]partyWithContacts, 0, len(parties))
	for _, p := range parties {
		contacts, err := s.store.ListContacts(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if contacts == nil {
			contacts = []*store.PartyContact{}
		}
		out = append(out, partyWithContacts{Party: p, Contacts: contacts})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleListContacts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.GetParty(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	contacts, err := s.store.ListContacts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if contacts == nil {
		contacts = []*store.PartyContact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Service) handleAddContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Type      store.ContactType `json:"contact_type"`
		Value     string            `json:"value"`
		IsPrimary bool              `json:"is_primary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := store.ValidateContact(req.Type, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	contact, err := s.store.AddContact(r.Context(), id, req.Type, req.Value, req.IsPrimary)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// handleIngest runs the pipeline on a raw HTML body. A document without a
// case number is not an error: the result reports status no_number.
func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	res, err := s.ingester.IngestHTML(r.Context(), source, raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
