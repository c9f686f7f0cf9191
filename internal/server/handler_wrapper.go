// Provides middleware for standardizing HTTP handlers.

package server

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/server/reqctx"
)

// requestMetadata adds the request ID, client IP and User-Agent to the
// context and echoes the request ID in X-Request-ID.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = reqctx.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClientIP(ctx, reqctx.GetClientIP(r))
		ctx = reqctx.WithUserAgent(ctx, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, *In) (*Out, error)
// *In must implement dto.Validatable.
//
// The JSON body (if any) is decoded into In, then fields tagged `path:"..."`
// and `query:"..."` are populated from the request, then Validate is called.
// maxBody caps the request body; 0 means no limit.
//
// Example:
//
//	type TreeRequest struct {
//	    Path string `query:"path"`
//	}
//
//	func (h *Handler) Tree(ctx context.Context, req *TreeRequest) (*TreeResponse, error)
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, maxBody) {
			return
		}
		populatePathParams(r, input)
		populateQueryParams(r, input)
		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}
		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// readAndDecodeBody limits, reads and decodes the JSON request body into
// input. Unknown fields are rejected.
// Returns false if an error occurred and was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, maxBody int64) bool {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apiErr := dto.PayloadTooLarge(maxBytesErr.Limit)
			writeErrorResponseWithCode(w, apiErr.StatusCode(), apiErr.Code(), apiErr.Error(), apiErr.Details())
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err, "requestID", reqctx.RequestID(ctx))
		writeBadRequestError(w, "Failed to read request body")
		return false
	}
	if len(bytes.TrimSpace(body)) > 0 {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(input); err != nil {
			slog.WarnContext(ctx, "Failed to decode request body", "err", err, "requestID", reqctx.RequestID(ctx))
			writeBadRequestError(w, "Invalid request body")
			return false
		}
	}
	return true
}

// writeJSONResponse writes a JSON response or error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorCode := dto.ErrorCodeInternal
		message := "internal error"
		var details map[string]any

		var ewsErr dto.ErrorWithStatus
		if errors.As(err, &ewsErr) {
			statusCode = ewsErr.StatusCode()
			errorCode = ewsErr.Code()
			message = ewsErr.Error()
			if d := ewsErr.Details(); len(d) > 0 {
				details = d
			}
		}
		if statusCode >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", errorCode, "requestID", reqctx.RequestID(ctx))
		} else {
			slog.InfoContext(ctx, "Request rejected", "err", err, "statusCode", statusCode, "code", errorCode, "requestID", reqctx.RequestID(ctx))
		}
		writeErrorResponseWithCode(w, statusCode, errorCode, message, details)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// populatePathParams extracts path parameters from the request and populates
// string fields tagged with `path:"paramName"`.
func populatePathParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}
		if v := r.PathValue(tag); v != "" {
			elem.Field(i).SetString(v)
		}
	}
}

// populateQueryParams extracts query parameters from the request and populates
// struct fields tagged with `query:"paramName"`.
func populateQueryParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		paramValue := query.Get(tag)
		if paramValue == "" {
			continue
		}
		fieldVal := elem.Field(i)
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(paramValue)
		case reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				fieldVal.SetInt(int64(intVal))
			}
		case reflect.Bool:
			if b, err := strconv.ParseBool(paramValue); err == nil {
				fieldVal.SetBool(b)
			}
		default:
			if unmarshaler, ok := fieldVal.Addr().Interface().(encoding.TextUnmarshaler); ok {
				_ = unmarshaler.UnmarshalText([]byte(paramValue))
			}
		}
	}
}

func structElem(input any) (reflect.Value, bool) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, false
	}
	elem := val.Elem()
	return elem, elem.Kind() == reflect.Struct
}

// handleValidationError handles a validation error from a request's Validate method.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusBadRequest
	errorCode := dto.ErrorCodeValidationFailed
	var details map[string]any

	var ewsErr dto.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
		if d := ewsErr.Details(); len(d) > 0 {
			details = d
		}
	}
	slog.InfoContext(ctx, "Validation error", "err", err, "statusCode", statusCode, "code", errorCode, "requestID", reqctx.RequestID(ctx))
	writeErrorResponseWithCode(w, statusCode, errorCode, err.Error(), details)
}

// writeBadRequestError writes a 400 Bad Request error response as JSON.
func writeBadRequestError(w http.ResponseWriter, message string) {
	writeErrorResponseWithCode(w, http.StatusBadRequest, dto.ErrorCodeValidationFailed, message, nil)
}

// writeErrorResponseWithCode writes a detailed error response as JSON with code and details.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code dto.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := dto.ErrorResponse{
		Error: dto.ErrorDetails{
			Code:    code,
			Message: message,
		},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}
