package usecase

import (
	"context"
	"time"

	"railcal-service/internal/domain/entity"
	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/logger"
	"railcal-service/pkg/metrics"
)

// fallbackDuration is added to the departure time when the schedule
// lookup cannot produce a real arrival time.
const fallbackDuration = 2 * time.Hour

// ArrivalResolver fills in a ticket's arrival time. The external lookup
// is slow and unreliable, so the call is bounded by a timeout and every
// failure mode degrades to an estimate; scheduling never blocks or
// aborts because the schedule source is down.
type ArrivalResolver struct {
	scheduleRepo repository.ScheduleRepository
	timeout      time.Duration
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewArrivalResolver creates a new arrival time resolver
func NewArrivalResolver(
	scheduleRepo repository.ScheduleRepository,
	timeout time.Duration,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ArrivalResolver {
	return &ArrivalResolver{
		scheduleRepo: scheduleRepo,
		timeout:      timeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// Resolve returns a copy of the ticket with ArrivalTime populated,
// either from the schedule lookup or from the departure+2h estimate.
func (r *ArrivalResolver) Resolve(ctx context.Context, ticket entity.TicketRecord) entity.TicketRecord {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	arrival, err := r.scheduleRepo.QueryArrivalTime(
		lookupCtx, ticket.TravelDate, ticket.TrainNumber, ticket.ToStation)

	switch {
	case err != nil:
		r.logger.Warn("Arrival lookup failed, using estimate",
			"train", ticket.TrainNumber, "error", err)
	case arrival == "":
		r.logger.Warn("Train or station not found in schedule, using estimate",
			"train", ticket.TrainNumber, "station", ticket.ToStation)
	default:
		if _, perr := time.Parse("15:04", arrival); perr != nil {
			r.logger.Warn("Malformed arrival time in lookup response, using estimate",
				"train", ticket.TrainNumber, "arrival", arrival)
			break
		}
		ticket.ArrivalTime = arrival
		ticket.Estimated = false
		return ticket
	}

	r.metrics.LookupFallbacks.Inc()
	ticket.ArrivalTime = r.estimate(ticket.DepartureTime)
	ticket.Estimated = true
	return ticket
}

// estimate derives a fallback arrival from the departure time. The
// departure has already passed the extractor's HH:MM grammar, so the
// parse cannot fail for records produced by the pipeline.
func (r *ArrivalResolver) estimate(departure string) string {
	dep, err := time.Parse("15:04", departure)
	if err != nil {
		r.logger.Error("Unparseable departure time", "departure", departure, "error", err)
		return departure
	}
	return dep.Add(fallbackDuration).Format("15:04")
}
