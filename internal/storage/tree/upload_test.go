package tree

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maruel/mdtree/internal/docerr"
)

func memFile(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func TestUpload(t *testing.T) {
	root, m, _ := newTestMutator(t)
	writeTree(t, root, "assets/taken.png")
	res, err := m.Upload(context.Background(), "assets", []UploadFile{
		memFile("notes.md", "# Notes"),
		memFile("taken.png", "png"),
		memFile("logo.svg", "<svg/>"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.SuccessCount != 2 || res.ErrorCount != 1 {
		t.Fatalf("res = %+v", res)
	}
	var ce *docerr.ConflictError
	if !errors.As(res.Items[1].Err, &ce) {
		t.Errorf("taken.png: %v", res.Items[1].Err)
	}
	data, err := os.ReadFile(filepath.Join(root, "assets", "notes.md"))
	if err != nil || string(data) != "# Notes" {
		t.Errorf("notes.md = %q, %v", data, err)
	}
}

func TestUploadRejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name    string
		files   []UploadFile
		wantErr any
	}{
		{"extension", []UploadFile{memFile("ok.md", "x"), memFile("run.exe", "x")}, &docerr.InvalidNameError{}},
		{"name", []UploadFile{memFile("ok.md", "x"), memFile("a|b.md", "x")}, &docerr.InvalidNameError{}},
		{"duplicate", []UploadFile{memFile("ok.md", "x"), memFile("ok.md", "y")}, &docerr.InvalidNameError{}},
		{"size", []UploadFile{memFile("ok.md", "x"), {Name: "big.md", Size: 11 << 20}}, &docerr.TooLargeError{}},
		{"empty", nil, &docerr.InvalidNameError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, m, _ := newTestMutator(t)
			_, err := m.Upload(context.Background(), "", tt.files)
			checkErrType(t, err, tt.wantErr)
			if exists(t, root, "ok.md") {
				t.Error("a file was written before validation finished")
			}
		})
	}
}

func TestUploadTooManyFiles(t *testing.T) {
	_, m, _ := newTestMutator(t)
	files := make([]UploadFile, m.upload.MaxFiles+1)
	for i := range files {
		files[i] = memFile(strings.Repeat("a", i+1)+".md", "x")
	}
	_, err := m.Upload(context.Background(), "", files)
	checkErrType(t, err, &docerr.InvalidNameError{})
}

func TestUploadUnderreportedSize(t *testing.T) {
	root, m, _ := newTestMutator(t)
	m.upload.MaxFileBytes = 4
	f := memFile("liar.md", "0123456789")
	f.Size = 1
	res, err := m.Upload(context.Background(), "", []UploadFile{f})
	if err != nil {
		t.Fatal(err)
	}
	var tl *docerr.TooLargeError
	if !errors.As(res.Items[0].Err, &tl) {
		t.Errorf("err = %v", res.Items[0].Err)
	}
	if exists(t, root, "liar.md") {
		t.Error("truncated file left behind")
	}
}
