package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/storage"
)

// writeTree creates files below root. Paths ending in "/" are folders.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if strings.HasSuffix(p, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("# "+p+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestScanner(t *testing.T, root string) *Scanner {
	t.Helper()
	cfg := storage.DefaultServerConfig()
	return NewScanner(root, &cfg.Tree, ".svg")
}

func TestScanOrdering(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"zeta.md", "alpha.md", "Beta.mdx", "notes.txt",
		"zoo/", "api/", "guides/b.md", "guides/a/",
		".hidden/secret.md", ".DS_Store", "node_modules/x.md",
	)
	nodes, err := newTestScanner(t, root).Scan(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, n := range nodes {
		got = append(got, n.Name)
	}
	want := []string{"API", "Guides", "Zoo", "Alpha", "Beta", "Notes", "Zeta"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", got, want)
	}
	checkOrdering(t, nodes)
}

// checkOrdering verifies folders precede files and display names are
// non-decreasing within each kind, recursively.
func checkOrdering(t *testing.T, nodes []*Node) {
	t.Helper()
	seenFile := false
	prev := map[Kind]string{}
	for _, n := range nodes {
		if n.Kind == KindFile {
			seenFile = true
		} else if seenFile {
			t.Errorf("folder %q after a file", n.RelativePath)
		}
		if p, ok := prev[n.Kind]; ok && n.Name < p {
			t.Errorf("%q sorts before %q", n.Name, p)
		}
		prev[n.Kind] = n.Name
		checkOrdering(t, n.Children)
	}
}

func TestScanNodeFields(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "My Guides/Getting Started.md", "My Guides/logo.png")
	nodes, err := newTestScanner(t, root).Scan(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	folder := nodes[0]
	if folder.Kind != KindFolder || folder.Depth != 1 || folder.RelativePath != "My Guides" {
		t.Errorf("folder = %+v", folder)
	}
	if len(folder.Children) != 2 {
		t.Fatalf("got %d children", len(folder.Children))
	}
	doc := folder.Children[0]
	if doc.Name != "Getting Started" || doc.Extension != ".md" || doc.Depth != 2 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.PreviewRef != "my-guides/getting-started.svg" {
		t.Errorf("PreviewRef = %q", doc.PreviewRef)
	}
	if doc.SizeBytes == 0 || doc.ModifiedAt.IsZero() {
		t.Errorf("missing size or time: %+v", doc)
	}
	if img := folder.Children[1]; img.PreviewRef != "" || img.IsDocument() {
		t.Errorf("image = %+v", img)
	}
	if got := Count(nodes); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}

func TestScanDepthCutoff(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/b/c/d/deep.md")
	cfg := storage.DefaultServerConfig()
	cfg.Tree.MaxDepth = 2
	nodes, err := NewScanner(root, &cfg.Tree, ".svg").Scan(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := Count(nodes); got != 2 {
		t.Fatalf("Count = %d, want 2 (a, a/b)", got)
	}
	if b := nodes[0].Children[0]; b.RelativePath != "a/b" || len(b.Children) != 0 {
		t.Errorf("b = %+v", b)
	}
}

func TestScanSubfolder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "guides/intro.md", "top.md")
	s := newTestScanner(t, root)
	nodes, err := s.Scan(context.Background(), "guides")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].RelativePath != "guides/intro.md" {
		t.Errorf("nodes = %+v", nodes)
	}

	var nf *docerr.NotFoundError
	if _, err := s.Scan(context.Background(), "missing"); !errors.As(err, &nf) {
		t.Errorf("missing: err = %v", err)
	}
	var naf *docerr.NotAFolderError
	if _, err := s.Scan(context.Background(), "top.md"); !errors.As(err, &naf) {
		t.Errorf("file: err = %v", err)
	}
	var inv *docerr.InvalidNameError
	if _, err := s.Scan(context.Background(), "../etc"); !errors.As(err, &inv) {
		t.Errorf("traversal: err = %v", err)
	}
}

func TestScanUnreadableFolder(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeTree(t, root, "locked/x.md", "open/y.md")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
	nodes, err := newTestScanner(t, root).Scan(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || len(nodes[0].Children) != 0 || len(nodes[1].Children) != 1 {
		t.Errorf("partial scan not returned: %+v", nodes)
	}
}

func TestScanDuplicateDisplayNames(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "getting-started.md", "getting_started.md", "other.md")
	nodes, err := newTestScanner(t, root).Scan(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	if !nodes[0].DuplicateName || !nodes[1].DuplicateName || nodes[2].DuplicateName {
		t.Errorf("duplicate flags: %v %v %v", nodes[0].DuplicateName, nodes[1].DuplicateName, nodes[2].DuplicateName)
	}
	if nodes[0].OriginalName != "getting-started.md" {
		t.Errorf("tie not broken by original name: %q", nodes[0].OriginalName)
	}
}
