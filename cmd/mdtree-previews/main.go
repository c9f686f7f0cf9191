// Command mdtree-previews generates and inspects document preview artifacts
// offline, using the same layout and configuration as the mdtree server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/mdtree/internal/storage"
)

// Globals are the flags shared by every command.
type Globals struct {
	DataDir  string `name:"data-dir" default:"./data" type:"path" help:"Directory holding server_config.json (defaults are used when missing)"`
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
}

// config loads server_config.json from the data directory. Unlike the
// server, a missing file is not created.
func (g *Globals) config() (*storage.ServerConfig, error) {
	if _, err := os.Stat(filepath.Join(g.DataDir, storage.ConfigFileName)); errors.Is(err, os.ErrNotExist) {
		cfg := storage.DefaultServerConfig()
		return &cfg, nil
	}
	return storage.LoadServerConfig(g.DataDir)
}

func (g *Globals) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// CLI defines the command-line interface for mdtree-previews.
type CLI struct {
	Globals

	Generate GenerateCmd `cmd:"" help:"Generate the preview artifact of every document"`
	Resolve  ResolveCmd  `cmd:"" help:"Resolve a preview request the way the server does"`
	Slug     SlugCmd     `cmd:"" help:"Print the canonical slug of names"`
	Scan     ScanCmd     `cmd:"" help:"Print the document tree"`
}

func newParser(ctx context.Context, c *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("mdtree-previews"),
		kong.Description("Offline preview generation for mdtree document trees"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(stdout, (*io.Writer)(nil)),
		kong.Bind(&c.Globals),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	var c CLI
	k, err := newParser(ctx, &c, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdtree-previews: %v\n", err)
		os.Exit(1)
	}
	kctx, err := k.Parse(os.Args[1:])
	k.FatalIfErrorf(err)

	ll := &slog.LevelVar{}
	ll.Set(c.level())
	slog.SetDefault(slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})))

	err = kctx.Run()
	if errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
	kctx.FatalIfErrorf(err)
}
