package usecase

import (
	"fmt"
	"time"

	"railcal-service/internal/domain/entity"
	"railcal-service/pkg/logger"
)

// CalendarSynthesizer turns resolved ticket records into calendar
// events in the departure locale's timezone. It performs no
// deduplication; idempotence is provided upstream by the watcher's
// processed-message set.
type CalendarSynthesizer struct {
	location *time.Location
	logger   logger.Logger
}

// NewCalendarSynthesizer creates a synthesizer for the given timezone
func NewCalendarSynthesizer(location *time.Location, logger logger.Logger) *CalendarSynthesizer {
	return &CalendarSynthesizer{
		location: location,
		logger:   logger,
	}
}

// Synthesize builds one event per ticket
func (s *CalendarSynthesizer) Synthesize(tickets []entity.TicketRecord) ([]entity.CalendarEvent, error) {
	events := make([]entity.CalendarEvent, 0, len(tickets))
	for _, ticket := range tickets {
		event, err := s.synthesizeOne(ticket)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *CalendarSynthesizer) synthesizeOne(ticket entity.TicketRecord) (entity.CalendarEvent, error) {
	start, err := time.ParseInLocation(
		"2006-01-02 15:04", ticket.TravelDate+" "+ticket.DepartureTime, s.location)
	if err != nil {
		return entity.CalendarEvent{}, fmt.Errorf("parsing departure: %w", err)
	}

	end, err := time.ParseInLocation(
		"2006-01-02 15:04", ticket.TravelDate+" "+ticket.ArrivalTime, s.location)
	if err != nil {
		return entity.CalendarEvent{}, fmt.Errorf("parsing arrival: %w", err)
	}

	// Overnight trains arrive the next calendar day.
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}

	event := entity.CalendarEvent{
		UID:   fmt.Sprintf("%s-%s@railcal", ticket.TrainNumber, ticket.TravelDate),
		Title: fmt.Sprintf("%s %s - %s", ticket.TrainNumber, ticket.FromStation, ticket.ToStation),
		Start: start,
		End:   end,
		Description: fmt.Sprintf("座位：%s\n座位类型：%s\n票价：%s元\n检票口：%s",
			ticket.SeatLabel, ticket.SeatClass, ticket.Price, ticket.Gate()),
		Location: fmt.Sprintf("%s 至 %s", ticket.FromStation, ticket.ToStation),
	}

	s.logger.Debug("Event synthesized",
		"uid", event.UID,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
		"estimated", ticket.Estimated)
	return event, nil
}
