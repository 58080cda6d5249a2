package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerMiddlewareSetsRequestID(t *testing.T) {
	logs := observeLogs(t)
	var seen string
	h := LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, w.Header().Get(RequestIDHeader))
	}
	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log line, got %d", len(entries))
	}
	if status := entries[0].ContextMap()["status"]; status != int64(http.StatusTeapot) {
		t.Fatalf("expected logged status 418, got %v", status)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if seen != "upstream-id" {
		t.Fatalf("expected incoming request id to be kept, got %q", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logs := observeLogs(t)
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if logs.FilterMessage("Panic recovered").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestRequestSizeLimit(t *testing.T) {
	SetPredictor(&fakeModel{value: 1})
	t.Cleanup(func() { SetPredictor(nil) })

	cfg := DefaultServerConfig()
	cfg.MaxBodyBytes = 16
	h := NewHandler(cfg)

	body := bytes.NewReader([]byte(`{"age": 1, "sex": 0, "test_time": 5}`))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,handler" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestHandler(t, &fakeModel{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers: %v", w.Header())
	}
}

func TestPanicIsAccessLogged(t *testing.T) {
	logs := observeLogs(t)
	h := middleware(DefaultServerConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	requestID := w.Header().Get(RequestIDHeader)
	if requestID == "" {
		t.Fatal("expected request id header on recovered response")
	}

	panics := logs.FilterMessage("Panic recovered").All()
	if len(panics) != 1 || panics[0].ContextMap()["request_id"] != requestID {
		t.Fatalf("expected panic logged with request id, got %v", panics)
	}
	access := logs.FilterMessage("HTTP request").All()
	if len(access) != 1 {
		t.Fatalf("expected one access log line, got %d", len(access))
	}
	fields := access[0].ContextMap()
	if fields["status"] != int64(http.StatusInternalServerError) || fields["request_id"] != requestID {
		t.Fatalf("unexpected access log fields %v", fields)
	}
}
