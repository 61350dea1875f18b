package extractor

import (
	"testing"

	"railcal-service/internal/domain/entity"
	"railcal-service/pkg/logger"
)

func TestExtractStandardTicket(t *testing.T) {
	body := "尊敬的旅客：您已成功购买2025年3月1日08:00开，北京南站-上海虹桥站，" +
		"G2次列车，05车12A号，商务座，票价553.0元，检票口5A，请携带购票证件进站。"

	got := NewExtractor(logger.NewNopLogger()).Extract(body)
	if got == nil {
		t.Fatal("Extract() = nil, want ticket")
	}

	want := entity.TicketRecord{
		TravelDate:    "2025-03-01",
		DepartureTime: "08:00",
		FromStation:   "北京南",
		ToStation:     "上海虹桥",
		TrainNumber:   "G2",
		SeatLabel:     "05车12A号",
		SeatClass:     "商务座",
		Price:         "553.0",
		GateLabel:     "5",
		GateSuffix:    "A",
	}
	if *got != want {
		t.Errorf("Extract() = %+v, want %+v", *got, want)
	}
	if got.Gate() != "5 A" {
		t.Errorf("Gate() = %q, want %q", got.Gate(), "5 A")
	}
}

func TestExtractTicketShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		train string
		gate  string
	}{
		{
			name: "ticket type clause before price",
			body: "您已购买2024年12月9日19:05开，广州南站-深圳北站，G9731次列车，" +
				"03车07F号，二等座，成人票，票价74.5元，检票口12B，祝您旅途愉快。",
			train: "G9731",
			gate:  "12 B",
		},
		{
			name: "no gate assigned",
			body: "您已购买2024年6月18日06:30开，西安北站-成都东站，D1911次列车，" +
				"08车11C号，二等座，票价263.0元。",
			train: "D1911",
			gate:  entity.GateNone,
		},
		{
			name: "waitlist fulfilled with gate",
			body: "您候补购票成功：2025年1月28日21:15开，北京西站-长沙站，Z1次列车，" +
				"10车05A号，硬卧下铺座，票价288.5元，检票口B7，请按时检票。",
			train: "Z1",
			gate:  "B7",
		},
	}

	e := NewExtractor(logger.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.body)
			if got == nil {
				t.Fatal("Extract() = nil, want ticket")
			}
			if got.TrainNumber != tt.train {
				t.Errorf("TrainNumber = %q, want %q", got.TrainNumber, tt.train)
			}
			if got.Gate() != tt.gate {
				t.Errorf("Gate() = %q, want %q", got.Gate(), tt.gate)
			}
		})
	}
}

func TestExtractLastOccurrenceWins(t *testing.T) {
	// Quoted history keeps older confirmations above the newest one.
	body := "您已购买2025年2月1日09:00开，天津站-北京南站，C2202次列车，" +
		"02车03D号，二等座，票价54.5元，检票口3，欢迎乘车。\n" +
		"您已购买2025年2月8日18:30开，北京南站-天津站，C2589次列车，" +
		"04车11F号，二等座，票价54.5元，检票口7A，欢迎乘车。"

	got := NewExtractor(logger.NewNopLogger()).Extract(body)
	if got == nil {
		t.Fatal("Extract() = nil, want ticket")
	}
	if got.TrainNumber != "C2589" {
		t.Errorf("TrainNumber = %q, want last occurrence %q", got.TrainNumber, "C2589")
	}
	if got.TravelDate != "2025-02-08" {
		t.Errorf("TravelDate = %q, want %q", got.TravelDate, "2025-02-08")
	}
}

func TestExtractHTMLBody(t *testing.T) {
	body := `<html><body><p>尊敬的旅客：</p><p>您已成功购买2025年3月1日08:00开，` +
		`<b>北京南站-上海虹桥站</b>，G2次列车，05车12A号，商务座，票价553.0元，检票口5A，</p></body></html>`

	got := NewExtractor(logger.NewNopLogger()).Extract(body)
	if got == nil {
		t.Fatal("Extract() = nil, want ticket")
	}
	if got.FromStation != "北京南" || got.ToStation != "上海虹桥" {
		t.Errorf("stations = %q -> %q, want 北京南 -> 上海虹桥", got.FromStation, got.ToStation)
	}
}

func TestExtractNoMatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "unrelated mail", body: "您的账户已于2025年3月1日完成实名核验。"},
		{name: "refund notice", body: "您2025年3月1日的G2次列车车票已退票，退款将原路返回。"},
	}

	e := NewExtractor(logger.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(tt.body); got != nil {
				t.Errorf("Extract() = %+v, want nil", *got)
			}
		})
	}
}

func TestSplitGate(t *testing.T) {
	tests := []struct {
		raw    string
		gate   string
		suffix string
	}{
		{raw: "", gate: entity.GateNone, suffix: ""},
		{raw: "5A", gate: "5", suffix: "A"},
		{raw: "12B", gate: "12", suffix: "B"},
		{raw: "B7", gate: "B7", suffix: ""},
		{raw: "候车室2 A", gate: "候车室2", suffix: "A"},
		{raw: "东", gate: "东", suffix: ""},
	}

	for _, tt := range tests {
		gate, suffix := splitGate(tt.raw)
		if gate != tt.gate || suffix != tt.suffix {
			t.Errorf("splitGate(%q) = (%q, %q), want (%q, %q)",
				tt.raw, gate, suffix, tt.gate, tt.suffix)
		}
	}
}
