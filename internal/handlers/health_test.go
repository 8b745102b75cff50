package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandlerHandle(t *testing.T) {
	tests := []struct {
		name     string
		database Pinger
		status   int
	}{
		{name: "no database", status: http.StatusOK},
		{name: "database reachable", database: pingerStub{}, status: http.StatusOK},
		{name: "database down", database: pingerStub{err: errStub}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := HealthHandler{Database: tt.database}

			rec := httptest.NewRecorder()
			handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d got %d", tt.status, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Fatalf("expected json content type got %s", got)
			}
		})
	}
}
