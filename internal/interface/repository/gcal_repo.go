package repository

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"railcal-service/internal/domain/entity"
	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/logger"
)

// GoogleCalendarRepository pushes synthesized events to a remote Google
// calendar. It is an optional sink: the local calendar file is the
// source of truth and is always written first.
type GoogleCalendarRepository struct {
	service    *calendar.Service
	calendarID string
	timezone   string
	logger     logger.Logger
}

// NewGoogleCalendarRepository creates a Google Calendar sink
func NewGoogleCalendarRepository(
	ctx context.Context,
	tokenSource oauth2.TokenSource,
	calendarID string,
	timezone string,
	logger logger.Logger,
) (repository.CalendarSinkRepository, error) {
	service, err := calendar.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return &GoogleCalendarRepository{
		service:    service,
		calendarID: calendarID,
		timezone:   timezone,
		logger:     logger,
	}, nil
}

// AddEvent inserts one event into the remote calendar
func (r *GoogleCalendarRepository) AddEvent(ctx context.Context, event entity.CalendarEvent) error {
	remote := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: r.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: r.timezone,
		},
	}

	created, err := r.service.Events.Insert(r.calendarID, remote).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("inserting remote event: %w", err)
	}

	r.logger.Info("Event pushed to remote calendar",
		"calendarId", r.calendarID,
		"eventId", created.Id,
		"title", event.Title)
	return nil
}
