package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"railcal-service/pkg/logger"
)

// downloadName is the attachment filename offered to calendar clients.
const downloadName = "12306_ticket.ics"

// Server serves the most recent generated calendar file, plus health
// and metrics endpoints. It is the only user-facing surface: it either
// hands out the current best-known calendar or reports its absence.
type Server struct {
	calendarDir string
	logger      logger.Logger
	mux         *http.ServeMux
}

// NewServer creates the distribution HTTP server
func NewServer(calendarDir string, logger logger.Logger) *Server {
	s := &Server{
		calendarDir: calendarDir,
		logger:      logger,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("/ticket", s.handleTicket)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the underlying http.Handler for this server
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A pasted calendar URL with its scheme still attached shows
		// up as a path component; answer with a hint instead of 404.
		if strings.Contains(r.RequestURI, "://") {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Malformed request: subscribe using a plain http(s) URL ending in /ticket\n"))
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Healthy"))
}

// handleTicket serves the most-recently-modified calendar file from the
// calendar directory as a downloadable text/calendar attachment.
func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.latestCalendarFile()
	if !ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("No calendar file found\n"))
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	http.ServeFile(w, r, latest)
}

// latestCalendarFile returns the newest .ics file in the calendar
// directory by modification time.
func (s *Server) latestCalendarFile() (string, bool) {
	entries, err := os.ReadDir(s.calendarDir)
	if err != nil {
		return "", false
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ics") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(s.calendarDir, entry.Name())
			latestMod = info.ModTime()
		}
	}

	if latest == "" {
		return "", false
	}
	return latest, true
}
