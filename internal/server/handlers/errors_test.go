package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/storage/tree"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"invalid name", &docerr.InvalidNameError{Name: "a:b", Reason: "forbidden character"}, 400, dto.ErrorCodeInvalidName},
		{"depth", &docerr.DepthExceededError{Path: "x", Attempted: 11, Allowed: 10}, 400, dto.ErrorCodeDepthExceeded},
		{"conflict", &docerr.ConflictError{Path: "a.md"}, 409, dto.ErrorCodeConflict},
		{"not found", &docerr.NotFoundError{Path: "a.md", What: "source"}, 404, dto.ErrorCodeNotFound},
		{"not a folder", &docerr.NotAFolderError{Path: "a.md"}, 400, dto.ErrorCodeNotAFolder},
		{"invalid move", &docerr.InvalidMoveError{Source: "a", Target: "a/b"}, 400, dto.ErrorCodeInvalidMove},
		{"too large", &docerr.TooLargeError{Path: "big.png", Size: 20, Limit: 10}, 413, dto.ErrorCodePayloadTooLarge},
		{"io", &docerr.IOFailure{Op: "read", Path: "a.md", Err: fs.ErrPermission}, 500, dto.ErrorCodeStorageError},
		{"wrapped", fmt.Errorf("context: %w", &docerr.ConflictError{Path: "a"}), 409, dto.ErrorCodeConflict},
		{"api error", dto.BadRequest("nope"), 400, dto.ErrorCodeValidationFailed},
		{"unknown", errors.New("boom"), 500, dto.ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ews dto.ErrorWithStatus
			if !errors.As(toAPIError(tt.err), &ews) {
				t.Fatal("not an ErrorWithStatus")
			}
			if ews.StatusCode() != tt.status || ews.Code() != tt.code {
				t.Errorf("got %d %s, want %d %s", ews.StatusCode(), ews.Code(), tt.status, tt.code)
			}
		})
	}
	if toAPIError(nil) != nil {
		t.Error("toAPIError(nil) != nil")
	}
	// The underlying cause stays reachable for logging.
	if err := toAPIError(&docerr.IOFailure{Op: "read", Err: fs.ErrPermission}); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	writeErrorResponse(w, &docerr.DepthExceededError{Path: "a/b", Attempted: 11, Allowed: 10})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp dto.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != dto.ErrorCodeDepthExceeded || resp.Details["allowed"] != float64(10) {
		t.Errorf("resp = %+v", resp)
	}
}

func TestBatchToDTO(t *testing.T) {
	b := &tree.BatchResult{
		Items: []tree.ItemResult{
			{Path: "a.md"},
			{Path: "b.md", Err: &docerr.NotFoundError{Path: "b.md"}},
		},
		SuccessCount: 1,
		ErrorCount:   1,
	}
	resp := batchToDTO(b, "deleted")
	if resp.Success || resp.SuccessCount != 1 || resp.ErrorCount != 1 || len(resp.Results) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Paths) != 1 || resp.Paths[0] != "a.md" {
		t.Errorf("Paths = %v", resp.Paths)
	}
	if r := resp.Results[1]; r.Success || r.Error.Code != dto.ErrorCodeNotFound || r.Details["path"] != "b.md" {
		t.Errorf("item = %+v", r)
	}
	if resp.Message != "1 item(s) deleted, 1 failed" {
		t.Errorf("Message = %q", resp.Message)
	}
}
