// Package main is the entry point for the mdtree server.
//
// mdtree serves a folder of markdown documents as a browsable tree over a
// JSON HTTP API, with preview images resolved from a separate previews root.
// Configuration is read from CLI flags, a .env file in the data directory and
// server_config.json.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/mdtree/internal/server"
	"github.com/maruel/mdtree/internal/server/handlers"
	"github.com/maruel/mdtree/internal/server/ratelimit"
	"github.com/maruel/mdtree/internal/storage"
	"github.com/maruel/mdtree/internal/storage/preview"
	"github.com/maruel/mdtree/internal/storage/tree"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mdtree: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080). Use 0.0.0.0:port to listen on all interfaces.")
	dataDir := flag.String("data-dir", "./data", "Data directory holding server_config.json and .env")
	docsDir := flag.String("docs-dir", "", "Document root (default: <data-dir>/docs)")
	previewsDir := flag.String("previews-dir", "", "Previews root (default: <data-dir>/previews)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	watch := flag.Bool("watch", false, "Watch the document root and refresh the index on external changes")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	slog.SetDefault(newLogger(ll, os.Getenv("JOURNAL_STREAM") != ""))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	env, err := loadDotEnv(*dataDir)
	if err != nil {
		return err
	}

	// Override with .env file values if not explicitly set via flags
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	applyEnv(set, env, map[string]*string{
		"http":         httpAddr,
		"log-level":    logLevel,
		"docs-dir":     docsDir,
		"previews-dir": previewsDir,
	})

	if err := setLogLevel(ll, *logLevel); err != nil {
		return err
	}

	serverCfg, err := storage.LoadServerConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load server_config.json: %w", err)
	}

	if *docsDir == "" {
		*docsDir = filepath.Join(*dataDir, "docs")
	}
	if *previewsDir == "" {
		*previewsDir = filepath.Join(*dataDir, "previews")
	}
	for _, d := range []string{*docsDir, *previewsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	store := preview.NewStore(*previewsDir)
	index := tree.NewIndex(*docsDir, &serverCfg.Tree)
	if err := index.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to index %s: %w", *docsDir, err)
	}
	svc := &handlers.Services{
		Scanner:  tree.NewScanner(*docsDir, &serverCfg.Tree, preview.RequestExt),
		Mutator:  tree.NewMutator(*docsDir, serverCfg, store, index),
		Resolver: preview.NewResolver(*docsDir, store, index, serverCfg),
	}

	if *watch {
		dw, err := tree.NewWatcher(*docsDir, &serverCfg.Tree, index)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", *docsDir, err)
		}
		go dw.Run(ctx)
		slog.InfoContext(ctx, "Watching document root", "dir", *docsDir)
	}

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	limits := ratelimit.NewConfig(&serverCfg.RateLimits)
	defer limits.Close()

	buildVersion, _, _, _ := getBuildInfo()
	cfg := &handlers.Config{
		Version: buildVersion,
		Server:  serverCfg,
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, cfg, limits),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "docs", *docsDir, "previews", *previewsDir, "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	// Wait for either context cancellation or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		// Graceful shutdown
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

// newLogger returns the tint console logger. Zero values are dropped from the
// output; underSystemd also drops the timestamp since journald adds its own.
func newLogger(ll *slog.LevelVar, underSystemd bool) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:       ll,
		TimeFormat:  "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:     !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: replaceAttr(underSystemd),
	}))
}

func replaceAttr(underSystemd bool) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.Attr{}
		}
		// Drop localhost IPs (not useful in logs).
		if a.Key == "ip" {
			if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
				return slog.Attr{}
			}
		}
		val := a.Value.Any()
		skip := false
		switch t := val.(type) {
		case string:
			skip = t == ""
		case bool:
			skip = !t
		case uint64:
			skip = t == 0
		case int64:
			skip = t == 0
		case float64:
			skip = t == 0
		case time.Time:
			skip = t.IsZero()
		case time.Duration:
			skip = t == 0
		case nil:
			skip = true
		}
		if skip {
			return slog.Attr{}
		}
		return a
	}
}

func setLogLevel(ll *slog.LevelVar, level string) error {
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", level)
	}
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("mdtree %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
