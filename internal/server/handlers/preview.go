// Serves preview images.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
)

// PreviewHandler serves preview images of documents.
type PreviewHandler struct {
	Svc *Services
}

// Preview serves the best available preview for the path captured by the
// {path...} wildcard, which must end in ".png". Encoded slashes
// (%2F) are decoded by the router before the lookup.
//
// The response always carries an image for an existing document: a stored
// bitmap or vector artifact with a long cache lifetime, or a generated
// placeholder with a short one. X-Preview-Tier names which.
func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.Svc.Resolver.Resolve(ctx, r.PathValue("path"))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Cache-Control", res.CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Preview-Tier", string(res.Tier))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(res.Data); err != nil {
		slog.WarnContext(ctx, "Failed to write preview", "err", err)
	}
}
