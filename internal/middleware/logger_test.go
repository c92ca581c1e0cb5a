package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	Logger(logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Fatalf("logged status = %v, want %d", fields["status"], http.StatusNotFound)
	}
	if fields["path"] != "/api/orders" {
		t.Fatalf("logged path = %v, want /api/orders", fields["path"])
	}
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestLogger_WriterSupportsHijack(t *testing.T) {
	logger := zap.NewNop()

	underlying := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatalf("wrapped writer does not implement http.Hijacker")
		}
		if _, _, err := hj.Hijack(); err != nil {
			t.Fatalf("Hijack: %v", err)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	Logger(logger)(next).ServeHTTP(underlying, req)

	if !underlying.hijacked {
		t.Fatalf("Hijack was not delegated to the underlying writer")
	}
}

func TestLogger_HijackWithoutSupportReturnsError(t *testing.T) {
	logger := zap.NewNop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatalf("wrapped writer does not implement http.Hijacker")
		}
		// httptest.ResponseRecorder не поддерживает перехват соединения
		if _, _, err := hj.Hijack(); err == nil {
			t.Fatalf("expected error when underlying writer cannot hijack")
		}
	})

	Logger(logger)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))
}
