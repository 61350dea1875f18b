package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/logger"
)

// queryTrainInfoURL is the public 12306 train-information page the
// scraper drives. There is no documented API for per-station arrival
// times; the page is filled in and queried the way a user would.
const queryTrainInfoURL = "https://kyfw.12306.cn/otn/queryTrainInfo/init"

// selectTrainNoJS reads the first suggestion from the train-number
// dropdown and copies its train_no attribute onto the input, firing a
// change event so the page accepts the selection.
const selectTrainNoJS = `(() => {
	const list = document.querySelector('#train_hide');
	if (!list) return false;
	list.style.display = 'block';
	const items = list.querySelectorAll('li');
	if (items.length === 0) return false;
	const trainNo = items[0].getAttribute('train_no');
	if (!trainNo) return false;
	const input = document.querySelector('#numberValue');
	if (!input) return false;
	input.setAttribute('train_no', trainNo);
	input.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`

// collectStopsJS walks the result table and returns every stop with its
// arrival time. "----" marks a missing time.
const collectStopsJS = `(() => {
	const rows = document.querySelectorAll('#_query_table_datas tr');
	const stops = [];
	for (const row of rows) {
		const station = row.querySelector('.t-station');
		if (!station) continue;
		const cds = row.querySelector('.cds');
		if (!cds) continue;
		const arrive = cds.querySelector('span');
		stops.push({
			station: station.textContent.trim(),
			arrive: arrive ? arrive.textContent.trim() : '',
		});
	}
	return stops;
})()`

type stop struct {
	Station string `json:"station"`
	Arrive  string `json:"arrive"`
}

// ChromedpScheduleRepository resolves arrival times by driving a
// headless Chromium against the 12306 query page.
type ChromedpScheduleRepository struct {
	logger logger.Logger
}

// NewChromedpScheduleRepository creates a browser-backed schedule lookup
func NewChromedpScheduleRepository(logger logger.Logger) repository.ScheduleRepository {
	return &ChromedpScheduleRepository{
		logger: logger,
	}
}

// QueryArrivalTime fills the query form for (date, trainCode), submits
// it, and scans the stop table for the destination station. It returns
// the arrival time-of-day, or "" when the train or station is not in
// the schedule. The caller's context bounds the whole interaction.
func (r *ChromedpScheduleRepository) QueryArrivalTime(ctx context.Context, date, trainCode, station string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var selected bool
	var stops []stop

	tasks := chromedp.Tasks{
		chromedp.Navigate(queryTrainInfoURL),
		chromedp.WaitVisible(`#train_start_date`, chromedp.ByQuery),
		chromedp.SetValue(`#train_start_date`, date, chromedp.ByQuery),
		chromedp.SetValue(`#numberValue`, trainCode, chromedp.ByQuery),
		// Give the suggestion dropdown a moment to populate.
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(selectTrainNoJS, &selected),
		chromedp.Click(`a.btn122s`, chromedp.ByQuery),
		chromedp.WaitVisible(`#_query_table_datas tr`, chromedp.ByQuery),
		chromedp.Evaluate(collectStopsJS, &stops),
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", fmt.Errorf("querying train info page: %w", err)
	}

	if !selected {
		r.logger.Debug("Train number not in suggestion list",
			"train", trainCode, "date", date)
		return "", nil
	}

	for _, s := range stops {
		if s.Station != station {
			continue
		}
		if s.Arrive == "----" {
			return "", nil
		}
		return s.Arrive, nil
	}

	r.logger.Debug("Station not found in schedule",
		"train", trainCode, "station", station, "stops", len(stops))
	return "", nil
}
