// Provides HTTP middleware and response writers for rate limiting.

package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/maruel/mdtree/internal/metrics"
	"github.com/maruel/mdtree/internal/server/dto"
	"github.com/maruel/mdtree/internal/server/reqctx"
)

// WriteHeaders writes rate limit headers to the response.
// Headers are written on all responses (both success and 429).
func WriteHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if !result.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
	}
}

// responseWriter injects rate limit headers before any response is written.
type responseWriter struct {
	http.ResponseWriter
	result      Result
	wroteHeader bool
}

// NewResponseWriter creates a response writer that injects rate limit headers.
func NewResponseWriter(w http.ResponseWriter, result Result) http.ResponseWriter {
	return &responseWriter{ResponseWriter: w, result: result}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		WriteHeaders(rw.ResponseWriter, rw.result)
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		WriteHeaders(rw.ResponseWriter, rw.result)
		rw.wroteHeader = true
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// BuildKey creates a bucket key from the client IP and tier name.
func BuildKey(ip, tierName string) string {
	return "ip:" + ip + ":" + tierName
}

// Middleware applies the matching tier to every request, keyed by client IP.
// Rejected requests get a 429 JSON error and never reach next.
func (c *Config) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := c.Match(r.Method, r.URL.Path)
		if tier == nil {
			next.ServeHTTP(w, r)
			return
		}
		result := tier.Limiter.Allow(BuildKey(reqctx.GetClientIP(r), tier.Name))
		w = NewResponseWriter(w, result)
		if !result.Allowed {
			metrics.RecordRateLimitHit(tier.Name)
			slog.WarnContext(r.Context(), "Rate limited", "tier", tier.Name, "ip", reqctx.GetClientIP(r), "path", r.URL.Path)
			writeError(w, dto.RateLimitExceeded(int(result.RetryAfter.Seconds())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, err *dto.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	resp := dto.ErrorResponse{
		Error:   dto.ErrorDetails{Code: err.Code(), Message: err.Message()},
		Details: err.Details(),
	}
	if e := json.NewEncoder(w).Encode(resp); e != nil {
		slog.Error("Failed to encode rate limit response", "err", e)
	}
}
