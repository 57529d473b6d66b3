package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request over the limit allowed")
	}

	// Another IP has its own budget
	if !rl.Allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := CORS([]string{"http://localhost:3000"})(next)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/folders", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(w, r)

	if !called {
		t.Error("next handler not called")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := CORS([]string{"http://localhost:3000"})(next)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/folders", nil)
	r.Header.Set("Origin", "http://evil.example.com")
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin leaked to unknown origin: %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := CORS([]string{"http://localhost:3000"})(next)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/folders", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(w, r)

	if called {
		t.Error("preflight reached the next handler")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}
