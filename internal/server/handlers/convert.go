// Converts storage types to API types.

package handlers

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/storage/tree"
)

func nodesToDTO(nodes []*tree.Node) []*dto.NodeResponse {
	out := make([]*dto.NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeToDTO(n))
	}
	return out
}

func nodeToDTO(n *tree.Node) *dto.NodeResponse {
	r := &dto.NodeResponse{
		Name:          n.Name,
		OriginalName:  n.OriginalName,
		Path:          n.RelativePath,
		Type:          dto.NodeTypeFile,
		Depth:         n.Depth,
		Extension:     n.Extension,
		Size:          n.SizeBytes,
		Modified:      n.ModifiedAt.UTC().Format(time.RFC3339),
		PreviewRef:    n.PreviewRef,
		DuplicateName: n.DuplicateName,
	}
	if n.Kind == tree.KindFolder {
		r.Type = dto.NodeTypeFolder
		r.Children = nodesToDTO(n.Children)
	} else {
		r.SizeHuman = humanize.IBytes(uint64(max(n.SizeBytes, 0)))
	}
	return r
}

func batchToDTO(b *tree.BatchResult, verb string) *dto.BatchResponse {
	resp := &dto.BatchResponse{
		Success:      b.Success(),
		Paths:        make([]string, 0, b.SuccessCount),
		SuccessCount: b.SuccessCount,
		ErrorCount:   b.ErrorCount,
		Results:      make([]dto.ItemResult, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		item := dto.ItemResult{Path: it.Path, Success: it.Err == nil}
		if it.Err != nil {
			item.Error, item.Details = errorDetails(it.Err)
		} else {
			resp.Paths = append(resp.Paths, it.Path)
		}
		resp.Results = append(resp.Results, item)
	}
	if b.ErrorCount == 0 {
		resp.Message = humanize.Comma(int64(b.SuccessCount)) + " item(s) " + verb
	} else {
		resp.Message = humanize.Comma(int64(b.SuccessCount)) + " item(s) " + verb + ", " + humanize.Comma(int64(b.ErrorCount)) + " failed"
	}
	return resp
}
