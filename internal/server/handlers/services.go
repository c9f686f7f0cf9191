// Defines shared service dependencies for handlers.

package handlers

import (
	"github.com/maruel/mdtree/internal/storage"
	"github.com/maruel/mdtree/internal/storage/preview"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Scanner  *tree.Scanner
	Mutator  *tree.Mutator
	Resolver *preview.Resolver
}

// Config holds configuration values needed by handlers.
type Config struct {
	Version string
	Server  *storage.ServerConfig
}
