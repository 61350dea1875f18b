package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ical "github.com/arran4/golang-ical"

	"railcal-service/internal/domain/entity"
	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/logger"
)

// ICSCalendarRepository persists calendar events as a single iCalendar
// file. Merging is read-modify-write: the whole file is reloaded,
// extended, and rewritten atomically.
type ICSCalendarRepository struct {
	path   string
	logger logger.Logger
}

// NewICSCalendarRepository creates a file-backed calendar store
func NewICSCalendarRepository(path string, logger logger.Logger) *ICSCalendarRepository {
	return &ICSCalendarRepository{
		path:   path,
		logger: logger,
	}
}

// Exists reports whether the calendar file is present on disk
func (r *ICSCalendarRepository) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// Path returns the on-disk location of the calendar file
func (r *ICSCalendarRepository) Path() string {
	return r.path
}

// Merge appends the events to the stored calendar and rewrites it
// atomically. Events are never removed here; the store is append-only
// from the pipeline's perspective.
func (r *ICSCalendarRepository) Merge(_ context.Context, events []entity.CalendarEvent) error {
	cal, err := r.load()
	if err != nil {
		return err
	}

	for _, event := range events {
		ve := cal.AddEvent(event.UID)
		ve.SetDtStampTime(event.Start)
		ve.SetStartAt(event.Start)
		ve.SetEndAt(event.End)
		ve.SetSummary(event.Title)
		ve.SetDescription(event.Description)
		ve.SetLocation(event.Location)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating calendar directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("writing calendar temp file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing calendar file: %w", err)
	}

	r.logger.Info("Calendar store updated", "path", r.path, "appended", len(events))
	return nil
}

// load returns the current on-disk calendar, or a fresh one when the
// file does not exist yet.
func (r *ICSCalendarRepository) load() (*ical.Calendar, error) {
	body, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		cal := ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId("-//railcal//ticket calendar//CN")
		return cal, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading calendar file: %w", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar file: %w", err)
	}
	return cal, nil
}

var _ repository.CalendarRepository = (*ICSCalendarRepository)(nil)
