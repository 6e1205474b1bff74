// procpipe extracts legal process data from court case HTML pages and
// serves the result over HTTP and MCP.
//
//	procpipe serve        -config procpipe.yaml
//	procpipe import       -file page.html | -dir pages/
//	procpipe set-password -email admin@example.com
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/juridigo/procpipe/api"
	"github.com/juridigo/procpipe/ingest"
	"github.com/juridigo/procpipe/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "set-password":
		runSetPassword(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: procpipe <command> [flags]

commands:
  serve         serve the HTTP API (and optionally MCP over stdio)
  import        ingest a single HTML file or a directory tree
  set-password  create or update an API user`)
}

// loadConfig resolves the config file, env overrides and logging for a
// subcommand. Env always wins over the file.
func loadConfig(fs *flag.FlagSet, args []string) *Config {
	configPath := fs.String("config", "", "path to YAML config file")
	fs.Parse(args)

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.applyEnv()

	// Logs go to stderr: stdout belongs to the MCP stdio transport when
	// serve -mcp is active, and to command output for import.
	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel))

	return cfg
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func openStore(cfg *Config) *store.Store {
	st, err := store.Open(cfg.DBPath, store.WithMkdirAll(), store.WithLogger(slog.Default()))
	if err != nil {
		slog.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	return st
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	mcpStdio := fs.Bool("mcp", false, "also serve MCP tools over stdio")
	cfg := loadConfig(fs, args)
	if *mcpStdio {
		cfg.MCP = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := openStore(cfg)
	defer st.Close()

	svc := api.NewService(st, api.Config{Logger: slog.Default()})

	if cfg.MCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "procpipe",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "single HTML file to ingest")
	dir := fs.String("dir", "", "directory tree of HTML files to ingest")
	cfg := loadConfig(fs, args)

	path := *file
	if path == "" {
		path = *dir
	}
	if path == "" || (*file != "" && *dir != "") {
		fmt.Fprintln(os.Stderr, "import: exactly one of -file or -dir is required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := openStore(cfg)
	defer st.Close()

	batch := ingest.NewBatch(st, ingest.BatchConfig{
		Workers: cfg.Workers,
		Logger:  slog.Default(),
	})
	summary, err := batch.Run(ctx, path)
	if err != nil {
		slog.Error("import", "path", path, "error", err)
		os.Exit(1)
	}

	for _, rec := range summary.Outcomes {
		line := fmt.Sprintf("%-9s %s", rec.Status, rec.Path)
		if rec.ProcessNumber != "" {
			line += "  " + rec.ProcessNumber
		}
		if rec.Detail != "" {
			line += "  (" + rec.Detail + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("run %s: %d processed, %d created, %d existing, %d without number, %d failed\n",
		summary.RunID, summary.Processed, summary.Created, summary.Existing,
		summary.NoNumber, summary.Failed)
}

func runSetPassword(args []string) {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	email := fs.String("email", "", "user email (required)")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (read from stdin when empty)")
	cfg := loadConfig(fs, args)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "set-password: -email is required")
		os.Exit(2)
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			slog.Error("read password", "error", err)
			os.Exit(1)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	st := openStore(cfg)
	defer st.Close()

	if err := st.SetUserPassword(context.Background(), *email, *name, pw); err != nil {
		slog.Error("set password", "email", *email, "error", err)
		os.Exit(1)
	}
	fmt.Printf("password set for %s\n", *email)
}
