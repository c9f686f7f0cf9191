package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		env, err := loadDotEnv(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if len(env) != 0 {
			t.Errorf("env = %v", env)
		}
	})

	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr bool
	}{
		{
			name:    "plain",
			content: "# comment\nHTTP=:9090\n\nDOCS_DIR = /srv/docs \nbogus\n",
			want:    map[string]string{"HTTP": ":9090", "DOCS_DIR": "/srv/docs"},
		},
		{
			name:    "double quoted",
			content: `LOG_LEVEL="debug"` + "\n" + `PREVIEWS_DIR="a b"`,
			want:    map[string]string{"LOG_LEVEL": "debug", "PREVIEWS_DIR": "a b"},
		},
		{
			name:    "equal in value",
			content: "X=a=b\n",
			want:    map[string]string{"X": "a=b"},
		},
		{name: "single quoted", content: "X='a'\n", wantErr: true},
		{name: "unbalanced", content: "X='a\n", wantErr: true},
		{name: "bad quote", content: "X=\"a\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			env, err := loadDotEnv(dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(env) != len(tt.want) {
				t.Fatalf("env = %v, want %v", env, tt.want)
			}
			for k, v := range tt.want {
				if env[k] != v {
					t.Errorf("env[%s] = %q, want %q", k, env[k], v)
				}
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	httpAddr := "localhost:8080"
	docsDir := "/cli/docs"
	logLevel := "info"
	applyEnv(
		map[string]bool{"docs-dir": true},
		map[string]string{"HTTP": ":9000", "DOCS_DIR": "/env/docs", "LOG_LEVEL": ""},
		map[string]*string{"http": &httpAddr, "docs-dir": &docsDir, "log-level": &logLevel},
	)
	if httpAddr != ":9000" {
		t.Errorf("http = %q", httpAddr)
	}
	if docsDir != "/cli/docs" {
		t.Errorf("docs-dir = %q, explicit flag must win", docsDir)
	}
	if logLevel != "info" {
		t.Errorf("log-level = %q, empty value must not override", logLevel)
	}
}

func TestSetLogLevel(t *testing.T) {
	ll := &slog.LevelVar{}
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		if err := setLogLevel(ll, level); err != nil {
			t.Fatal(err)
		}
		if ll.Level() != want {
			t.Errorf("%s: level = %v", level, ll.Level())
		}
	}
	if err := setLogLevel(ll, "verbose"); err == nil {
		t.Error("expected error")
	}
}

func TestReplaceAttr(t *testing.T) {
	f := replaceAttr(true)
	tests := []struct {
		name   string
		groups []string
		attr   slog.Attr
		keep   bool
	}{
		{"time under systemd", nil, slog.Time(slog.TimeKey, time.Now()), false},
		{"localhost ip", nil, slog.String("ip", "127.0.0.1"), false},
		{"remote ip", nil, slog.String("ip", "10.0.0.1"), true},
		{"empty string", nil, slog.String("path", ""), false},
		{"false", nil, slog.Bool("dirty", false), false},
		{"zero int", nil, slog.Int64("size", 0), false},
		{"zero duration", nil, slog.Duration("d", 0), false},
		{"value", nil, slog.Int("count", 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f(tt.groups, tt.attr)
			if kept := got.Key != ""; kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}
