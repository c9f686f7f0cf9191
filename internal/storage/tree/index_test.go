package tree

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/maruel/mdtree/internal/storage"
)

func TestIndex(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"Getting Started.md", "examples/Component.mdx", "examples/image.png",
		".git/HEAD.md", "node_modules/pkg/readme.md",
	)
	cfg := storage.DefaultServerConfig()
	ix := NewIndex(root, &cfg.Tree)
	ctx := context.Background()
	if err := ix.EnsureFresh(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	docs := ix.Documents()
	if len(docs) != 2 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].RelativePath != "Getting Started.md" || docs[1].RelativePath != "examples/Component.mdx" {
		t.Errorf("docs = %+v", docs)
	}
	for key, want := range map[string]string{
		"getting-started":    "Getting Started.md",
		"examples/component": "examples/Component.mdx",
	} {
		if got, ok := ix.LookupArtifact(key); !ok || got != want {
			t.Errorf("LookupArtifact(%q) = %q, %v", key, got, ok)
		}
	}

	writeTree(t, root, "late.md")
	if err := ix.EnsureFresh(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := ix.LookupArtifact("late"); ok {
		t.Error("fresh index refreshed before max age")
	}
	ix.Invalidate()
	if err := ix.EnsureFresh(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := ix.LookupArtifact("late"); !ok {
		t.Error("invalidated index not refreshed")
	}
}

func TestWatcherInvalidates(t *testing.T) {
	root := t.TempDir()
	cfg := storage.DefaultServerConfig()
	ix := NewIndex(root, &cfg.Tree)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ix.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(root, &cfg.Tree, ix)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	if err := os.WriteFile(filepath.Join(root, "new.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		ix.mu.RLock()
		stale := ix.stale
		ix.mu.RUnlock()
		if stale {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("index not invalidated")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestWatcherSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/sub/", "node_modules/pkg/", ".hidden/x/", "vendor/")
	cfg := storage.DefaultServerConfig()
	w, err := NewWatcher(root, &cfg.Tree, NewIndex(root, &cfg.Tree))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.w.Close() }()
	got := w.w.WatchList()
	slices.Sort(got)
	want := []string{root, filepath.Join(root, "docs"), filepath.Join(root, "docs", "sub")}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("watched = %v, want %v", got, want)
	}

	if !w.skip("vendor") || !w.skip(".cache") || w.skip("docs") {
		t.Error("skip mismatch")
	}
}
