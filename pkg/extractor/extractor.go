package extractor

import (
	"regexp"
	"strings"
	"time"

	"railcal-service/internal/domain/entity"
	"railcal-service/pkg/logger"
)

// A patternRule is one full grammar for a known 12306 message shape.
// Rules are independent: each one matches a complete ticket clause on
// its own, so they can be tested in isolation.
type patternRule struct {
	name    string
	re      *regexp.Regexp
	hasGate bool
}

// The three known message shapes, in priority order. The first rule
// that matches at all wins; later rules are not consulted.
var rules = []patternRule{
	{
		// Standard purchase; the gate clause is optional.
		name:    "standard",
		re:      regexp.MustCompile(`(?s)(\d{4}年\d{1,2}月\d{1,2}日)(\d{2}:\d{2})开[，,](.+?站)-(.+?站)[，,]((?:G|D|C|Z|T|K)\d+)次列车[，,](\d+车\d+[A-Z]号)[，,](.+?座)[，,](?:.+?票[，,])?票价(\d+(?:\.\d+)?)元(?:[，,]检票口(.+?))?[，,。]`),
		hasGate: true,
	},
	{
		// Waitlist purchase fulfilled with a gate assignment.
		name:    "waitlist-gate",
		re:      regexp.MustCompile(`(?s)(\d{4}年\d{1,2}月\d{1,2}日)(\d{2}:\d{2})开[，,](.+?站)-(.+?站)[，,]((?:G|D|C|Z|T|K)\d+)次列车[，,](\d+车\d+[A-Z]号)[，,](.+?座)[，,]票价(\d+(?:\.\d+)?)元[，,]检票口(.+?)[，,。]`),
		hasGate: true,
	},
	{
		// Waitlist purchase with no gate assigned yet.
		name:    "waitlist",
		re:      regexp.MustCompile(`(?s)(\d{4}年\d{1,2}月\d{1,2}日)(\d{2}:\d{2})开[，,](.+?站)-(.+?站)[，,]((?:G|D|C|Z|T|K)\d+)次列车[，,](\d+车\d+[A-Z]号)[，,](.+?座)[，,]票价(\d+(?:\.\d+)?)元[。，,]`),
		hasGate: false,
	},
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	gateDigitsRe  = regexp.MustCompile(`^(\d+)([A-Za-z]+)$`)
	gateTrailerRe = regexp.MustCompile(`^(.+) ([A-Za-z])$`)
)

// Extractor turns free-form confirmation message text into ticket records
type Extractor struct {
	logger logger.Logger
}

// NewExtractor creates a new ticket extractor
func NewExtractor(logger logger.Logger) *Extractor {
	return &Extractor{
		logger: logger,
	}
}

// Extract applies the pattern rules in order and returns the structured
// ticket, or nil when no rule matches. A nil result is an expected,
// common outcome: most mail from the sender is not a ticket confirmation.
func (e *Extractor) Extract(text string) *entity.TicketRecord {
	body := cleanHTMLText(text)

	for _, rule := range rules {
		matches := rule.re.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			continue
		}

		// Messages carry quoted history; the latest ticket is the
		// last occurrence in document order.
		groups := matches[len(matches)-1]
		record, err := e.buildRecord(rule, groups)
		if err != nil {
			e.logger.Warn("Matched ticket clause failed normalization",
				"rule", rule.name, "error", err)
			return nil
		}

		e.logger.Debug("Ticket extracted",
			"rule", rule.name,
			"occurrences", len(matches),
			"train", record.TrainNumber,
			"date", record.TravelDate)
		return record
	}

	e.logger.Debug("No ticket clause in message body")
	return nil
}

func (e *Extractor) buildRecord(rule patternRule, groups []string) (*entity.TicketRecord, error) {
	rawDate, departure := groups[1], groups[2]
	fromStation, toStation := groups[3], groups[4]
	trainNumber := groups[5]
	seat, seatClass := groups[6], groups[7]
	price := groups[8]

	rawGate := ""
	if rule.hasGate && len(groups) > 9 {
		rawGate = strings.TrimSpace(groups[9])
	}

	date, err := time.Parse("2006年1月2日", rawDate)
	if err != nil {
		return nil, err
	}

	gate, gateSuffix := splitGate(rawGate)

	return &entity.TicketRecord{
		TravelDate:    date.Format("2006-01-02"),
		DepartureTime: departure,
		FromStation:   strings.TrimSuffix(fromStation, "站"),
		ToStation:     strings.TrimSuffix(toStation, "站"),
		TrainNumber:   trainNumber,
		SeatLabel:     seat,
		SeatClass:     seatClass,
		Price:         price,
		GateLabel:     gate,
		GateSuffix:    gateSuffix,
	}, nil
}

// splitGate normalizes the raw gate text. A digits-then-letters run is
// split into number and suffix ("5A" -> "5", "A"); a value ending in a
// space and a single letter is split at the space; anything else is kept
// verbatim. An absent gate yields the "none" sentinel.
func splitGate(raw string) (string, string) {
	if raw == "" {
		return entity.GateNone, ""
	}
	if m := gateDigitsRe.FindStringSubmatch(raw); m != nil {
		return m[1], m[2]
	}
	if m := gateTrailerRe.FindStringSubmatch(raw); m != nil {
		return m[1], m[2]
	}
	return raw, ""
}

// cleanHTMLText removes HTML tags and replaces common entities so the
// pattern rules see the same text a reader would.
func cleanHTMLText(text string) string {
	cleaned := htmlTagRe.ReplaceAllString(text, "")

	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")

	return cleaned
}
