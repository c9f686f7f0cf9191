package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(mux)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/things/42", http.NoBody))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d", w.Code)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody))

	out := scrape(t)
	for _, want := range []string{
		`mdtree_http_requests_total{method="GET",route="GET /api/things/{id}",status="418"}`,
		`mdtree_http_requests_total{method="GET",route="unmatched",status="404"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestRecorders(t *testing.T) {
	RecordMutation("move", nil)
	RecordMutation("move", errors.New("x"))
	RecordPreviewResolution("placeholder")
	RecordPreviewGenerated("svg", true, nil)
	RecordRateLimitHit("write")
	out := scrape(t)
	for _, want := range []string{
		`mdtree_mutations_total{op="move",result="success"}`,
		`mdtree_mutations_total{op="move",result="error"}`,
		`mdtree_preview_resolutions_total{tier="placeholder"}`,
		`mdtree_preview_generated_total{format="svg",result="skipped"}`,
		`mdtree_rate_limit_hits_total{tier="write"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}
