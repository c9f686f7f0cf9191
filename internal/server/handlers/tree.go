// Handles tree listing and content reads.

package handlers

import (
	"context"

	"github.com/maruel/mdtree/internal/render"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/storage"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// TreeHandler serves the read side of the document tree.
type TreeHandler struct {
	Svc *Services
	Cfg *Config
}

// Tree returns the subtree below req.Path, down to the configured depth.
func (h *TreeHandler) Tree(ctx context.Context, req *dto.TreeRequest) (*dto.TreeResponse, error) {
	nodes, err := h.Svc.Scanner.Scan(ctx, req.Path)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &dto.TreeResponse{
		Path:  req.Path,
		Nodes: nodesToDTO(nodes),
		Total: tree.Count(nodes),
	}, nil
}

// Content returns the raw text of one file and, for documents with
// format=html, its rendered HTML.
func (h *TreeHandler) Content(ctx context.Context, req *dto.ContentRequest) (*dto.ContentResponse, error) {
	data, err := h.Svc.Mutator.ReadContent(req.Path)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp := &dto.ContentResponse{
		Path:    req.Path,
		Content: string(data),
		Size:    int64(len(data)),
	}
	if req.Format == dto.ContentFormatHTML {
		if !storage.IsDocument(req.Path) {
			return nil, dto.BadRequest("html rendering is only available for .md and .mdx documents")
		}
		html, err := render.Markdown(data)
		if err != nil {
			return nil, dto.InternalWithError("failed to render document", err)
		}
		resp.HTML = string(html)
	}
	return resp, nil
}
