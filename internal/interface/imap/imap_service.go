package imap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"railcal-service/internal/domain/entity"
	"railcal-service/internal/infrastructure/config"
	"railcal-service/internal/usecase"
	"railcal-service/pkg/logger"
)

// WatcherState is the watcher's position in its connection lifecycle.
type WatcherState int

const (
	StateDisconnected WatcherState = iota
	StateConnected
	StateListening
	StateProcessing
)

func (s WatcherState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// IMAPService watches one mailbox for mail from the designated sender
// and drives the ticket pipeline for each new message. It owns the
// reconnect loop: any connection error tears down the session, and the
// outer loop retries indefinitely after a fixed delay.
//
// All state is touched by a single goroutine; there is no locking.
type IMAPService struct {
	addr        string
	username    string
	password    string
	sender      string
	mailbox     string
	settleDelay time.Duration
	maxIdle     time.Duration
	retryDelay  time.Duration
	processor   *usecase.TicketProcessor
	logger      logger.Logger
	state       WatcherState
	uidValidity uint32
}

// NewIMAPService creates a new mailbox watcher
func NewIMAPService(cfg *config.Config, processor *usecase.TicketProcessor, logger logger.Logger) *IMAPService {
	return &IMAPService{
		addr:        cfg.IMAPHost + ":" + cfg.IMAPPort,
		username:    cfg.EmailUsername,
		password:    cfg.EmailPassword,
		sender:      cfg.TargetSender,
		mailbox:     cfg.Mailbox,
		settleDelay: cfg.SettleDelay,
		maxIdle:     cfg.MaxIdle,
		retryDelay:  cfg.ReconnectDelay,
		processor:   processor,
		logger:      logger,
		state:       StateDisconnected,
	}
}

func (s *IMAPService) setState(state WatcherState) {
	if s.state != state {
		s.logger.Debug("Watcher state change", "from", s.state.String(), "to", state.String())
		s.state = state
	}
}

// Run is the outer retry loop. It never terminates on a transient
// error; only context cancellation, checked between sessions, stops it.
// Retries are iterative, not recursive, so stack depth stays bounded
// under indefinite operation.
func (s *IMAPService) Run(ctx context.Context) {
	s.logger.Info("Mailbox watcher started",
		"server", s.addr, "sender", s.sender, "mailbox", s.mailbox)

	for {
		if ctx.Err() != nil {
			s.logger.Info("Mailbox watcher stopped")
			return
		}

		if err := s.session(ctx); err != nil {
			s.logger.Error("Mailbox session ended", "error", err)
		}
		s.setState(StateDisconnected)

		select {
		case <-ctx.Done():
			s.logger.Info("Mailbox watcher stopped")
			return
		case <-time.After(s.retryDelay):
		}
	}
}

// session runs one connection lifecycle: connect, select, one catch-up
// pass, then alternate between IDLE waits and processing passes until
// the connection fails, the idle window expires, or ctx is cancelled.
func (s *IMAPService) session(ctx context.Context) error {
	// notify is signalled from the IMAP goroutine on unilateral
	// mailbox updates (new message count).
	notify := make(chan struct{}, 1)
	options := &imapclient.Options{
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages != nil {
					select {
					case notify <- struct{}{}:
					default:
					}
				}
			},
		},
	}

	client, err := imapclient.DialTLS(s.addr, options)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", s.addr, err)
	}
	defer client.Close()

	if err := client.Login(s.username, s.password).Wait(); err != nil {
		return fmt.Errorf("login for %s: %w", s.username, err)
	}
	s.setState(StateConnected)
	s.logger.Info("Logged in to mailbox", "server", s.addr)

	selectData, err := client.Select(s.mailbox, nil).Wait()
	if err != nil {
		return fmt.Errorf("selecting %s: %w", s.mailbox, err)
	}
	s.uidValidity = selectData.UIDValidity

	// Catch-up pass for mail that arrived while we were away.
	if err := s.processPass(ctx, client); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		s.setState(StateListening)

		idleCmd, err := client.Idle()
		if err != nil {
			return fmt.Errorf("starting idle: %w", err)
		}

		refresh := time.NewTimer(s.maxIdle)
		notified := false
		select {
		case <-ctx.Done():
		case <-notify:
			notified = true
		case <-refresh.C:
		}
		refresh.Stop()

		if err := idleCmd.Close(); err != nil {
			return fmt.Errorf("stopping idle: %w", err)
		}
		if err := idleCmd.Wait(); err != nil {
			return fmt.Errorf("idle: %w", err)
		}

		if ctx.Err() != nil {
			return nil
		}
		if !notified {
			// Long-lived connections go silently stale; cycle the
			// session even though no mail arrived.
			s.logger.Info("Idle window expired, refreshing connection")
			return nil
		}

		// Let the server finish indexing the just-arrived message
		// before re-querying.
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.settleDelay):
		}

		if err := s.processPass(ctx, client); err != nil {
			return err
		}
	}
}

// processPass queries all mail from the designated sender and hands the
// batch to the processor. The full re-scan sidesteps lost-flag races;
// the sender's message count is small.
func (s *IMAPService) processPass(ctx context.Context, client *imapclient.Client) error {
	s.setState(StateProcessing)

	messages, err := s.fetchFromSender(client)
	if err != nil {
		return err
	}
	s.logger.Info("Processing pass", "messages", len(messages))

	s.processor.ProcessBatch(ctx, messages)
	return nil
}

// fetchFromSender searches for every message from the target sender and
// fetches envelope plus body for each.
func (s *IMAPService) fetchFromSender(client *imapclient.Client) ([]entity.MailMessage, error) {
	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: s.sender},
		},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching sender mail: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:     true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var messages []entity.MailMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			s.logger.Warn("Failed to collect message", "error", err)
			continue
		}

		messages = append(messages, s.toMailMessage(buf, bodySection))
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching sender mail: %w", err)
	}
	return messages, nil
}

// toMailMessage converts a fetched buffer into the domain message.
func (s *IMAPService) toMailMessage(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) entity.MailMessage {
	msg := entity.MailMessage{
		UID:        uint32(buf.UID),
		ReceivedAt: buf.InternalDate,
	}

	if buf.Envelope != nil {
		msg.MessageID = buf.Envelope.MessageID
		msg.Subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			msg.From = buf.Envelope.From[0].Addr()
		}
	}
	if msg.MessageID == "" {
		// Stable across reconnects as long as the server keeps the
		// same UIDVALIDITY for the mailbox.
		msg.MessageID = fmt.Sprintf("%d:%d", s.uidValidity, buf.UID)
	}

	if raw := buf.FindBodySection(section); raw != nil {
		msg.Body = extractBody(raw)
	}
	return msg
}

// extractBody parses a raw RFC 2822 message and returns its text
// content, preferring text/plain and falling back to text/html.
func extractBody(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not parseable as MIME; treat the payload as plain text.
		return string(raw)
	}
	defer mr.Close()

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody = string(body)
		}
	}

	if strings.TrimSpace(textBody) != "" {
		return textBody
	}
	return htmlBody
}
