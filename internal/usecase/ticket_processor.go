package usecase

import (
	"context"
	"fmt"
	"time"

	"railcal-service/internal/domain/entity"
	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/extractor"
	"railcal-service/pkg/logger"
	"railcal-service/pkg/metrics"
)

// TicketProcessor drives the per-message pipeline: extraction, arrival
// resolution, event synthesis, and the ordered pair of writes (calendar
// store first, processed set second). The ordering gives at-least-once
// semantics: a crash between the two writes leaves the identifier
// unmarked and the message is retried on the next pass.
type TicketProcessor struct {
	extractor     *extractor.Extractor
	resolver      *ArrivalResolver
	synthesizer   *CalendarSynthesizer
	processedRepo repository.ProcessedSetRepository
	calendarRepo  repository.CalendarRepository
	sinkRepo      repository.CalendarSinkRepository // nil when the sink is not configured
	metrics       *metrics.Metrics
	logger        logger.Logger
}

// NewTicketProcessor creates a new ticket processor
func NewTicketProcessor(
	extractor *extractor.Extractor,
	resolver *ArrivalResolver,
	synthesizer *CalendarSynthesizer,
	processedRepo repository.ProcessedSetRepository,
	calendarRepo repository.CalendarRepository,
	sinkRepo repository.CalendarSinkRepository,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *TicketProcessor {
	return &TicketProcessor{
		extractor:     extractor,
		resolver:      resolver,
		synthesizer:   synthesizer,
		processedRepo: processedRepo,
		calendarRepo:  calendarRepo,
		sinkRepo:      sinkRepo,
		metrics:       metrics,
		logger:        logger,
	}
}

// ProcessBatch runs one processing pass over the messages from the
// designated sender. A failure in one message is logged and does not
// abort the pass; the remaining messages are still attempted.
func (p *TicketProcessor) ProcessBatch(ctx context.Context, messages []entity.MailMessage) {
	// If the calendar artifact is gone, the processed set no longer
	// vouches for anything; reprocess everything to rebuild it.
	storeExists := p.calendarRepo.Exists()
	if !storeExists {
		p.logger.Info("Calendar store missing, reprocessing all messages")
	}

	for _, msg := range messages {
		if storeExists && p.processedRepo.Contains(msg.MessageID) {
			continue
		}

		if err := p.ProcessMessage(ctx, msg); err != nil {
			p.metrics.ErrorsCount.WithLabelValues("process_message").Inc()
			p.logger.Error("Failed to process message",
				"messageId", msg.MessageID, "error", err)
		}
	}
}

// ProcessMessage runs the pipeline for one message. An extraction miss
// is an expected outcome and returns nil without touching any state.
func (p *TicketProcessor) ProcessMessage(ctx context.Context, msg entity.MailMessage) error {
	start := time.Now()
	defer func() {
		p.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()
	p.metrics.MessagesProcessed.Inc()

	ticket := p.extractor.Extract(msg.Body)
	if ticket == nil {
		p.metrics.ExtractionMisses.Inc()
		p.logger.Debug("No ticket in message", "messageId", msg.MessageID)
		return nil
	}

	p.logger.Info("Ticket extracted",
		"messageId", msg.MessageID,
		"train", ticket.TrainNumber,
		"date", ticket.TravelDate,
		"from", ticket.FromStation,
		"to", ticket.ToStation)

	resolved := p.resolver.Resolve(ctx, *ticket)

	events, err := p.synthesizer.Synthesize([]entity.TicketRecord{resolved})
	if err != nil {
		return fmt.Errorf("synthesizing events: %w", err)
	}

	// Local calendar write comes first; only a durable write may mark
	// the message processed.
	if err := p.calendarRepo.Merge(ctx, events); err != nil {
		p.metrics.ErrorsCount.WithLabelValues("calendar_write").Inc()
		return fmt.Errorf("merging calendar events: %w", err)
	}
	p.metrics.EventsWritten.Add(float64(len(events)))

	if err := p.processedRepo.Add(ctx, msg.MessageID); err != nil {
		p.metrics.ErrorsCount.WithLabelValues("processed_set_write").Inc()
		return fmt.Errorf("persisting processed set: %w", err)
	}

	p.pushToSink(ctx, events)
	return nil
}

// pushToSink forwards new events to the remote calendar when one is
// configured. Sink failures never roll back the local write.
func (p *TicketProcessor) pushToSink(ctx context.Context, events []entity.CalendarEvent) {
	if p.sinkRepo == nil {
		return
	}
	for _, event := range events {
		if err := p.sinkRepo.AddEvent(ctx, event); err != nil {
			p.metrics.SinkFailures.Inc()
			p.logger.Error("Remote calendar push failed",
				"uid", event.UID, "error", err)
		}
	}
}
