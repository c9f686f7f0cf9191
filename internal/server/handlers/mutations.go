// Handles create, delete and move.

package handlers

import (
	"context"

	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// MutationHandler handles the write side of the document tree.
type MutationHandler struct {
	Svc *Services
	Cfg *Config
}

// CreateFile creates a .md or .mdx document.
func (h *MutationHandler) CreateFile(ctx context.Context, req *dto.CreateFileRequest) (*dto.MutationResponse, error) {
	typ := req.Type
	if typ == "" {
		typ = "md"
	}
	res, err := h.Svc.Mutator.CreateFile(ctx, &tree.CreateFileRequest{
		Name:       req.Name,
		Type:       typ,
		ParentPath: req.Path,
		Content:    req.Content,
	})
	metrics.RecordMutation("create_file", err)
	return mutationResponse(res, err)
}

// CreateFolder creates a folder.
func (h *MutationHandler) CreateFolder(ctx context.Context, req *dto.CreateFolderRequest) (*dto.MutationResponse, error) {
	res, err := h.Svc.Mutator.CreateFolder(ctx, &tree.CreateFolderRequest{
		Name:       req.Name,
		ParentPath: req.Path,
	})
	metrics.RecordMutation("create_folder", err)
	return mutationResponse(res, err)
}

// Delete deletes each path independently. Partial failure is reported in the
// body with success=false, not as an HTTP error.
func (h *MutationHandler) Delete(ctx context.Context, req *dto.DeleteRequest) (*dto.BatchResponse, error) {
	res := h.Svc.Mutator.Delete(ctx, req.Paths)
	for _, it := range res.Items {
		metrics.RecordMutation("delete", it.Err)
	}
	return batchToDTO(res, "deleted"), nil
}

// Move moves a file or folder into another folder.
func (h *MutationHandler) Move(ctx context.Context, req *dto.MoveRequest) (*dto.MutationResponse, error) {
	res, err := h.Svc.Mutator.Move(ctx, &tree.MoveRequest{
		Source:       req.Source,
		TargetParent: req.TargetParent,
	})
	metrics.RecordMutation("move", err)
	return mutationResponse(res, err)
}

func mutationResponse(res *tree.Result, err error) (*dto.MutationResponse, error) {
	if err != nil {
		return nil, toAPIError(err)
	}
	return &dto.MutationResponse{Success: true, Path: res.Path, Message: res.Message}, nil
}
