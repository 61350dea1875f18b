package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"railcal-service/pkg/logger"
)

func TestHandleTicketServesLatestCalendar(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "old.ics")
	if err := os.WriteFile(older, []byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, stale, stale); err != nil {
		t.Fatal(err)
	}

	newest := filepath.Join(dir, "ticket.ics")
	body := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:G2-2025-03-01@railcal\nEND:VEVENT\nEND:VCALENDAR\n"
	if err := os.WriteFile(newest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(dir, logger.NewNopLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ticket", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q, want text/calendar", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="12306_ticket.ics"`) {
		t.Errorf("Content-Disposition = %q, want attachment filename 12306_ticket.ics", cd)
	}

	got, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(got), "G2-2025-03-01@railcal") {
		t.Error("response body is not the newest calendar file")
	}
}

func TestHandleTicketNoCalendar(t *testing.T) {
	srv := NewServer(t.TempDir(), logger.NewNopLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ticket", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Body.String(); got != "No calendar file found\n" {
		t.Errorf("body = %q, want %q", got, "No calendar file found\n")
	}
}

func TestHandlerRejectsSchemeInPath(t *testing.T) {
	srv := NewServer(t.TempDir(), logger.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "/ticket", nil)
	req.RequestURI = "/https://example.com/ticket"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "Malformed request") {
		t.Errorf("body = %q, want a malformed-request hint", rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(t.TempDir(), logger.NewNopLogger())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
