package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/maruel/mdtree/internal/pathsafe"
	"github.com/maruel/mdtree/internal/storage/preview"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// GenerateCmd writes the artifact of every document below Docs.
type GenerateCmd struct {
	Docs     string `required:"" help:"Document root" type:"existingdir"`
	Previews string `required:"" help:"Previews root, created if missing" type:"path"`
	Format   string `help:"Artifact format: svg or png (default: preview.format from server_config.json)"`
	Workers  int    `short:"j" default:"0" help:"Concurrent generations (0 means one per CPU)"`
	Force    bool   `help:"Regenerate artifacts even when up to date"`
}

func (c *GenerateCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	name := c.Format
	if name == "" {
		name = cfg.Preview.Format
	}
	format, err := preview.ParseFormat(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Previews, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create previews root: %w", err)
	}
	gen := preview.NewGenerator(c.Docs, preview.NewStore(c.Previews), &cfg.Preview)
	gen.Force = c.Force
	index := tree.NewIndex(c.Docs, &cfg.Tree)
	report, err := preview.Batch(ctx, index, gen, preview.BatchOptions{Format: format, Workers: c.Workers})
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", f.Path, f.Err)
	}
	_, _ = fmt.Fprintf(out, "%s generated, %s up to date, %s failed in %s\n",
		humanize.Comma(int64(report.Generated)),
		humanize.Comma(int64(report.Skipped)),
		humanize.Comma(int64(len(report.Failures))),
		report.Duration.Round(time.Millisecond))
	if n := len(report.Failures); n != 0 {
		return fmt.Errorf("%d document(s) failed", n)
	}
	return nil
}

// ResolveCmd runs the preview fallback chain for one request path.
type ResolveCmd struct {
	Path     string `arg:"" help:"Previews-root relative request path, e.g. guides/setup.png"`
	Docs     string `required:"" help:"Document root" type:"existingdir"`
	Previews string `required:"" help:"Previews root" type:"path"`
	Out      string `short:"o" help:"Write the preview bytes to this file" type:"path"`
}

func (c *ResolveCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	store := preview.NewStore(c.Previews)
	index := tree.NewIndex(c.Docs, &cfg.Tree)
	res, err := preview.NewResolver(c.Docs, store, index, cfg).Resolve(ctx, c.Path)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "tier:  %s\nmime:  %s\ncache: %s\nsize:  %s\n",
		res.Tier, res.MimeType, res.CacheControl, humanize.IBytes(uint64(len(res.Data))))
	if c.Out != "" {
		if err := os.WriteFile(c.Out, res.Data, 0o644); err != nil { //nolint:gosec // G306: previews are public
			return fmt.Errorf("failed to write %s: %w", c.Out, err)
		}
	}
	return nil
}

// SlugCmd prints the canonical form of each name.
type SlugCmd struct {
	Names  []string `arg:"" help:"Names to canonicalize"`
	Folder bool     `help:"Treat names as slash separated folder paths"`
}

func (c *SlugCmd) Run(out io.Writer) error {
	failed := 0
	for _, name := range c.Names {
		if c.Folder {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", name, pathsafe.CanonicalizeFolderPath(name))
			continue
		}
		slug, err := pathsafe.Canonicalize(name)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s\terror: %v\n", name, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\n", name, slug)
	}
	if failed != 0 {
		return fmt.Errorf("%d name(s) have no canonical form", failed)
	}
	return nil
}

// ScanCmd prints the display tree of a folder.
type ScanCmd struct {
	Path string `arg:"" optional:"" help:"Folder to scan, relative to the document root"`
	Docs string `required:"" help:"Document root" type:"existingdir"`
}

func (c *ScanCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	nodes, err := tree.NewScanner(c.Docs, &cfg.Tree, preview.RequestExt).Scan(ctx, c.Path)
	if err != nil {
		return err
	}
	printNodes(out, nodes, 0)
	_, _ = fmt.Fprintf(out, "%s node(s)\n", humanize.Comma(int64(tree.Count(nodes))))
	return nil
}

func printNodes(out io.Writer, nodes []*tree.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, n := range nodes {
		dup := ""
		if n.DuplicateName {
			dup = " [duplicate]"
		}
		if n.Kind == tree.KindFolder {
			_, _ = fmt.Fprintf(out, "%s%s/%s\n", pad, n.Name, dup)
			printNodes(out, n.Children, indent+1)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s%s (%s)%s\n", pad, n.Name, humanize.IBytes(uint64(n.SizeBytes)), dup) //nolint:gosec // G115: sizes are non-negative
	}
}
