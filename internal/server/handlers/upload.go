// Handles multipart uploads into the document tree.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/storage/tree"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// UploadHandler handles file uploads.
type UploadHandler struct {
	Svc *Services
	Cfg *Config
}

// Upload writes the "files" parts of a multipart form into the folder named
// by the "path" query parameter.
// This is a raw http.HandlerFunc because it handles multipart forms.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	up := &h.Cfg.Server.Upload
	// Room for every file at its ceiling plus multipart framing.
	limit := up.MaxFileBytes*int64(up.MaxFiles) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, dto.PayloadTooLarge(maxBytesErr.Limit))
			return
		}
		slog.WarnContext(ctx, "Failed to parse upload", "err", err)
		writeErrorResponse(w, dto.BadRequest("invalid multipart form"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.WarnContext(ctx, "Failed to remove upload temp files", "err", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeErrorResponse(w, dto.MissingField("files"))
		return
	}
	files := make([]tree.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, tree.UploadFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: openPart(fh),
		})
	}
	res, err := h.Svc.Mutator.Upload(ctx, r.URL.Query().Get("path"), files)
	if err != nil {
		metrics.RecordMutation("upload", err)
		slog.WarnContext(ctx, "Upload rejected", "err", err)
		writeErrorResponse(w, err)
		return
	}
	for _, it := range res.Items {
		metrics.RecordMutation("upload", it.Err)
	}
	writeJSON(w, batchToDTO(res, "uploaded"))
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}
