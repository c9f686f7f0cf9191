// Maps domain errors to API errors and writes error responses.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maruel/mdtree/internal/docerr"
	"github.com/maruel/mdtree/internal/server/dto"
)

// toAPIError converts a docerr error to a *dto.APIError. Errors that already
// carry a status pass through; anything unknown becomes a 500.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var ews dto.ErrorWithStatus
	if errors.As(err, &ews) {
		return err
	}
	var (
		invalidName *docerr.InvalidNameError
		depth       *docerr.DepthExceededError
		conflict    *docerr.ConflictError
		notFound    *docerr.NotFoundError
		notAFolder  *docerr.NotAFolderError
		invalidMove *docerr.InvalidMoveError
		tooLarge    *docerr.TooLargeError
		ioFailure   *docerr.IOFailure
	)
	switch {
	case errors.As(err, &invalidName):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeInvalidName, err.Error()).
			WithDetails(map[string]any{"name": invalidName.Name, "reason": invalidName.Reason})
	case errors.As(err, &depth):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeDepthExceeded, err.Error()).
			WithDetails(map[string]any{"path": depth.Path, "attempted": depth.Attempted, "allowed": depth.Allowed})
	case errors.As(err, &conflict):
		return dto.NewAPIError(http.StatusConflict, dto.ErrorCodeConflict, err.Error()).
			WithDetail("path", conflict.Path)
	case errors.As(err, &notFound):
		return dto.NewAPIError(http.StatusNotFound, dto.ErrorCodeNotFound, err.Error()).
			WithDetail("path", notFound.Path)
	case errors.As(err, &notAFolder):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeNotAFolder, err.Error()).
			WithDetail("path", notAFolder.Path)
	case errors.As(err, &invalidMove):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeInvalidMove, err.Error()).
			WithDetails(map[string]any{"source": invalidMove.Source, "target": invalidMove.Target})
	case errors.As(err, &tooLarge):
		return dto.PayloadTooLarge(tooLarge.Limit).WithDetails(map[string]any{"path": tooLarge.Path, "size": tooLarge.Size})
	case errors.As(err, &ioFailure):
		return dto.NewAPIError(http.StatusInternalServerError, dto.ErrorCodeStorageError, "storage failure").
			WithDetail("path", ioFailure.Path).Wrap(err)
	default:
		return dto.InternalWithError("internal error", err)
	}
}

// errorDetails returns the code, message and details of an item error.
func errorDetails(err error) (*dto.ErrorDetails, map[string]any) {
	var ews dto.ErrorWithStatus
	if !errors.As(toAPIError(err), &ews) {
		return &dto.ErrorDetails{Code: dto.ErrorCodeInternal, Message: err.Error()}, nil
	}
	d := ews.Details()
	if len(d) == 0 {
		d = nil
	}
	return &dto.ErrorDetails{Code: ews.Code(), Message: ews.Error()}, d
}

// writeErrorResponse writes an error as a JSON response.
// Use this in raw http.HandlerFunc handlers that don't use server.Wrap.
func writeErrorResponse(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorCode := dto.ErrorCodeInternal
	message := "internal error"
	var details map[string]any

	var ewsErr dto.ErrorWithStatus
	if errors.As(toAPIError(err), &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
		message = ewsErr.Error()
		if d := ewsErr.Details(); len(d) > 0 {
			details = d
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := dto.ErrorResponse{
		Error: dto.ErrorDetails{
			Code:    errorCode,
			Message: message,
		},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
