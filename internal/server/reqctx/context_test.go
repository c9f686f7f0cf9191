package reqctx

import (
	"context"
	"net/http"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195"},
			remoteAddr: "127.0.0.1:8080",
			want:       "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "127.0.0.1:8080",
			want:       "203.0.113.195",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.195"},
			remoteAddr: "127.0.0.1:8080",
			want:       "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195", "X-Real-IP": "10.0.0.1"},
			remoteAddr: "127.0.0.1:8080",
			want:       "203.0.113.195",
		},
		{
			name:       "RemoteAddr with port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
		{
			name:       "IPv6 RemoteAddr with port",
			remoteAddr: "[::1]:8080",
			want:       "::1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/", http.NoBody)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if ClientIP(ctx) != "" || UserAgent(ctx) != "" || RequestID(ctx) != "" {
		t.Fatal("empty context returned values")
	}
	id := NewRequestID()
	if id == "" || id == NewRequestID() {
		t.Errorf("NewRequestID() = %q, not unique", id)
	}
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "curl/8")
	ctx = WithRequestID(ctx, id)
	if got := ClientIP(ctx); got != "10.0.0.1" {
		t.Errorf("ClientIP() = %q", got)
	}
	if got := UserAgent(ctx); got != "curl/8" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := RequestID(ctx); got != id {
		t.Errorf("RequestID() = %q, want %q", got, id)
	}
}
