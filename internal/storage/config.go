// Manages server configuration stored in server_config.json.

// Package storage holds the on-disk configuration shared by the server and
// the offline preview tool.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/mdtree/internal/pathsafe"
)

// ConfigFileName is the name of the configuration file inside the data
// directory.
const ConfigFileName = "server_config.json"

// DocumentExtensions are the recognized document formats, in lookup order:
// the static format first, then the interactive one.
var DocumentExtensions = []string{".md", ".mdx"}

// IsDocument reports whether name has a document extension.
func IsDocument(name string) bool {
	return slices.Contains(DocumentExtensions, strings.ToLower(filepath.Ext(name)))
}

// ServerConfig stores all server-wide configuration.
// Loaded from server_config.json, created with defaults if missing.
type ServerConfig struct {
	Tree       TreeConfig    `json:"tree"`
	Upload     UploadConfig  `json:"upload"`
	Preview    PreviewConfig `json:"preview"`
	Index      IndexConfig   `json:"index"`
	RateLimits RateLimits    `json:"rate_limits"`

	// MaxRequestBodyBytes limits the size of JSON request bodies.
	MaxRequestBodyBytes int64 `json:"max_request_body_bytes"`
}

// TreeConfig controls scanning and mutation of the document tree.
type TreeConfig struct {
	// MaxDepth is the deepest nesting level accepted for creates and moves,
	// and the level past which the scanner stops descending.
	MaxDepth int `json:"max_depth"`

	// Exclusions are directory names never shown nor descended into.
	Exclusions []string `json:"exclusions"`
}

// UploadConfig restricts uploads.
type UploadConfig struct {
	// AllowedExtensions lists the accepted file extensions, lowercase with the
	// leading dot.
	AllowedExtensions []string `json:"allowed_extensions"`

	// MaxFileBytes is the per-file size ceiling.
	MaxFileBytes int64 `json:"max_file_bytes"`

	// MaxFiles is the most files accepted in one batch.
	MaxFiles int `json:"max_files"`
}

// PreviewConfig controls artifact generation and preview responses.
type PreviewConfig struct {
	// Format is the artifact format written by the generator: "svg" or "png".
	Format string `json:"format"`

	ExcerptLines   int `json:"excerpt_lines"`
	ExcerptColumns int `json:"excerpt_columns"`

	// RasterScale multiplies the card size of bitmap artifacts.
	RasterScale int `json:"raster_scale"`

	// LongCacheSeconds is the cache lifetime of confirmed artifacts.
	LongCacheSeconds int `json:"long_cache_seconds"`
	// ShortCacheSeconds is the cache lifetime of synthesized placeholders.
	ShortCacheSeconds int `json:"short_cache_seconds"`
}

// IndexConfig controls the document index.
type IndexConfig struct {
	// MaxAgeSeconds is how old the index may be before readers refresh it.
	MaxAgeSeconds int `json:"max_age_seconds"`
}

// MaxAge returns MaxAgeSeconds as a duration.
func (c *IndexConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// WritePerMin limits mutations (POST). 0 means unlimited.
	WritePerMin int `json:"write_per_min"`

	// ReadPerMin limits reads (GET). 0 means unlimited.
	ReadPerMin int `json:"read_per_min"`
}

// DefaultServerConfig returns the configuration written on first start.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Tree: TreeConfig{
			MaxDepth:   pathsafe.DefaultMaxDepth,
			Exclusions: []string{"node_modules", "vendor", "dist", "venv", "env", "virtualenv", ".git"},
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".md", ".mdx", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".pdf", ".txt"},
			MaxFileBytes:      10 * 1024 * 1024, // 10 MiB
			MaxFiles:          20,
		},
		Preview: PreviewConfig{
			Format:            "svg",
			ExcerptLines:      6,
			ExcerptColumns:    48,
			RasterScale:       2,
			LongCacheSeconds:  86400,
			ShortCacheSeconds: 60,
		},
		Index: IndexConfig{
			MaxAgeSeconds: 30,
		},
		RateLimits: RateLimits{
			WritePerMin: 60,
			ReadPerMin:  6000,
		},
		MaxRequestBodyBytes: 1024 * 1024, // 1 MiB
	}
}

// Validate checks that the configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.Tree.MaxDepth <= 0 {
		return errors.New("tree.max_depth must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("upload.allowed_extensions must not be empty")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || ext != strings.ToLower(ext) {
			return fmt.Errorf("upload.allowed_extensions: %q must be lowercase and start with '.'", ext)
		}
	}
	if c.Upload.MaxFileBytes <= 0 {
		return errors.New("upload.max_file_bytes must be positive")
	}
	if c.Upload.MaxFiles <= 0 {
		return errors.New("upload.max_files must be positive")
	}
	if c.Preview.Format != "svg" && c.Preview.Format != "png" {
		return fmt.Errorf("preview.format: unknown format %q", c.Preview.Format)
	}
	if c.Preview.ExcerptLines <= 0 || c.Preview.ExcerptColumns <= 0 {
		return errors.New("preview.excerpt_lines and preview.excerpt_columns must be positive")
	}
	if c.Preview.RasterScale <= 0 || c.Preview.RasterScale > 8 {
		return errors.New("preview.raster_scale must be between 1 and 8")
	}
	if c.Preview.LongCacheSeconds < 0 || c.Preview.ShortCacheSeconds < 0 {
		return errors.New("preview cache lifetimes must be non-negative")
	}
	if c.Index.MaxAgeSeconds < 0 {
		return errors.New("index.max_age_seconds must be non-negative")
	}
	if c.RateLimits.WritePerMin < 0 || c.RateLimits.ReadPerMin < 0 {
		return errors.New("rate limits must be non-negative")
	}
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	return nil
}

// UploadAllowed reports whether name has an allowed upload extension.
func (c *UploadConfig) UploadAllowed(name string) bool {
	return slices.Contains(c.AllowedExtensions, strings.ToLower(filepath.Ext(name)))
}

// LoadServerConfig loads configuration from dataDir/server_config.json.
// Creates the file with defaults if it doesn't exist. Fields missing from an
// existing file keep their default value.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, ConfigFileName)
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
		}
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/server_config.json.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dataDir, ConfigFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFileName, err)
	}
	return nil
}
