package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggerSingleton(t *testing.T) {
	if Logger() != Logger() {
		t.Fatal("Logger returned different instances")
	}
}

func TestInstrumentPassesThrough(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusWriterDefault(t *testing.T) {
	// Handlers that never call WriteHeader count as 200.
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLogEventDoesNotPanic(t *testing.T) {
	LogEvent("info", "test_event", map[string]any{"key": "value"})
	Warn("test_warn", nil)
	Info("test_info", nil)
}
