package usecase

import (
	"strings"
	"testing"
	"time"

	"railcal-service/internal/domain/entity"
	"railcal-service/pkg/logger"
)

func TestSynthesizeEvent(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	s := NewCalendarSynthesizer(loc, logger.NewNopLogger())

	ticket := entity.TicketRecord{
		TravelDate:    "2025-03-01",
		DepartureTime: "08:00",
		ArrivalTime:   "12:38",
		FromStation:   "北京南",
		ToStation:     "上海虹桥",
		TrainNumber:   "G2",
		SeatLabel:     "05车12A号",
		SeatClass:     "商务座",
		Price:         "553.0",
		GateLabel:     "5",
		GateSuffix:    "A",
	}

	events, err := s.Synthesize([]entity.TicketRecord{ticket})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}

	event := events[0]
	if event.UID != "G2-2025-03-01@railcal" {
		t.Errorf("UID = %q, want %q", event.UID, "G2-2025-03-01@railcal")
	}
	if event.Title != "G2 北京南 - 上海虹桥" {
		t.Errorf("Title = %q, want %q", event.Title, "G2 北京南 - 上海虹桥")
	}

	wantStart := time.Date(2025, 3, 1, 8, 0, 0, 0, loc)
	if !event.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", event.Start, wantStart)
	}
	wantEnd := time.Date(2025, 3, 1, 12, 38, 0, 0, loc)
	if !event.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", event.End, wantEnd)
	}

	for _, line := range []string{"座位：05车12A号", "座位类型：商务座", "票价：553.0元", "检票口：5 A"} {
		if !strings.Contains(event.Description, line) {
			t.Errorf("Description missing %q:\n%s", line, event.Description)
		}
	}
	if event.Location != "北京南 至 上海虹桥" {
		t.Errorf("Location = %q, want %q", event.Location, "北京南 至 上海虹桥")
	}
}

func TestSynthesizeOvernightArrival(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	s := NewCalendarSynthesizer(loc, logger.NewNopLogger())

	ticket := entity.TicketRecord{
		TravelDate:    "2025-01-28",
		DepartureTime: "21:15",
		ArrivalTime:   "01:30",
		Estimated:     true,
		FromStation:   "北京西",
		ToStation:     "长沙",
		TrainNumber:   "Z1",
	}

	events, err := s.Synthesize([]entity.TicketRecord{ticket})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	wantEnd := time.Date(2025, 1, 29, 1, 30, 0, 0, loc)
	if !events[0].End.Equal(wantEnd) {
		t.Errorf("End = %v, want next-day %v", events[0].End, wantEnd)
	}
	if !events[0].End.After(events[0].Start) {
		t.Error("End is not after Start for an overnight arrival")
	}
}

func TestSynthesizeRejectsMalformedRecord(t *testing.T) {
	s := NewCalendarSynthesizer(time.UTC, logger.NewNopLogger())

	ticket := entity.TicketRecord{
		TravelDate:    "not-a-date",
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
	}

	if _, err := s.Synthesize([]entity.TicketRecord{ticket}); err == nil {
		t.Error("Synthesize() error = nil, want parse error")
	}
}
