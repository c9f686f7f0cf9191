package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if cfg.Tree.MaxDepth != 10 {
			t.Errorf("MaxDepth = %d, want 10", cfg.Tree.MaxDepth)
		}
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err != nil {
			t.Errorf("config file not written: %v", err)
		}
	})
	t.Run("partial file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"tree":{"max_depth":4}}`), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if cfg.Tree.MaxDepth != 4 {
			t.Errorf("MaxDepth = %d, want 4", cfg.Tree.MaxDepth)
		}
		if cfg.Preview.Format != "svg" {
			t.Errorf("Preview.Format = %q, want svg", cfg.Preview.Format)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"preview":{"format":"gif"}}`), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadServerConfig(dir); err == nil {
			t.Error("expected validation error")
		}
	})
	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{`), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadServerConfig(dir); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ServerConfig)
	}{
		{"zero depth", func(c *ServerConfig) { c.Tree.MaxDepth = 0 }},
		{"no extensions", func(c *ServerConfig) { c.Upload.AllowedExtensions = nil }},
		{"extension without dot", func(c *ServerConfig) { c.Upload.AllowedExtensions = []string{"md"} }},
		{"uppercase extension", func(c *ServerConfig) { c.Upload.AllowedExtensions = []string{".MD"} }},
		{"zero file size", func(c *ServerConfig) { c.Upload.MaxFileBytes = 0 }},
		{"raster scale", func(c *ServerConfig) { c.Preview.RasterScale = 9 }},
		{"negative rate", func(c *ServerConfig) { c.RateLimits.WritePerMin = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestIsDocument(t *testing.T) {
	for name, want := range map[string]bool{
		"a.md":     true,
		"a.MDX":    true,
		"a.txt":    false,
		"md":       false,
		"dir/b.md": true,
	} {
		if got := IsDocument(name); got != want {
			t.Errorf("IsDocument(%q) = %v, want %v", name, got, want)
		}
	}
	up := DefaultServerConfig().Upload
	if !up.UploadAllowed("photo.JPG") {
		t.Error("photo.JPG should be allowed")
	}
	if up.UploadAllowed("run.exe") {
		t.Error("run.exe should not be allowed")
	}
}
