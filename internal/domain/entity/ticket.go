package entity

import (
	"time"
)

// GateNone is the sentinel gate value used when a confirmation message
// carries no check-in gate field.
const GateNone = "无"

// TicketRecord is the structured representation of one train journey
// extracted from a 12306 confirmation message.
type TicketRecord struct {
	// TravelDate is the journey date in canonical YYYY-MM-DD form.
	TravelDate string
	// DepartureTime and ArrivalTime are times of day in HH:MM form.
	// ArrivalTime is empty until the resolver has run.
	DepartureTime string
	ArrivalTime   string
	// Estimated is true when ArrivalTime came from the departure+2h
	// fallback rather than the schedule lookup.
	Estimated bool

	// FromStation and ToStation are station names with the trailing
	// "站" designator stripped.
	FromStation string
	ToStation   string

	TrainNumber string

	SeatLabel string
	SeatClass string
	Price     string

	// GateLabel holds the gate number (or raw gate text); GateSuffix
	// holds a trailing letter split off the raw value, if any.
	GateLabel  string
	GateSuffix string
}

// Gate returns the display form of the gate, with the suffix appended
// after a separating space when present.
func (t *TicketRecord) Gate() string {
	if t.GateSuffix == "" {
		return t.GateLabel
	}
	return t.GateLabel + " " + t.GateSuffix
}

// CalendarEvent is the schedulable representation of a ticket, ready to
// be merged into the calendar store or pushed to a remote calendar.
type CalendarEvent struct {
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
}
