package imap

import (
	"strings"
	"testing"
)

const crlf = "\r\n"

func TestExtractBodyPlainText(t *testing.T) {
	raw := strings.Join([]string{
		"From: 12306@rails.com.cn",
		"Subject: ticket",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain ticket body",
	}, crlf)

	got := extractBody([]byte(raw))
	if !strings.Contains(got, "plain ticket body") {
		t.Errorf("extractBody() = %q, want the text/plain content", got)
	}
}

func TestExtractBodyPrefersPlainOverHTML(t *testing.T) {
	raw := strings.Join([]string{
		"From: 12306@rails.com.cn",
		"Subject: ticket",
		`Content-Type: multipart/alternative; boundary=frontier`,
		"",
		"--frontier",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html body</p>",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain body",
		"--frontier--",
		"",
	}, crlf)

	got := extractBody([]byte(raw))
	if !strings.Contains(got, "plain body") {
		t.Errorf("extractBody() = %q, want text/plain part", got)
	}
	if strings.Contains(got, "html body") {
		t.Errorf("extractBody() = %q, must not fall back to HTML when plain text exists", got)
	}
}

func TestExtractBodyHTMLFallback(t *testing.T) {
	raw := strings.Join([]string{
		"From: 12306@rails.com.cn",
		"Subject: ticket",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html only</p>",
	}, crlf)

	got := extractBody([]byte(raw))
	if !strings.Contains(got, "html only") {
		t.Errorf("extractBody() = %q, want the text/html content", got)
	}
}

func TestExtractBodyUnparseablePayload(t *testing.T) {
	raw := "not an rfc 2822 message at all"
	if got := extractBody([]byte(raw)); got != raw {
		t.Errorf("extractBody() = %q, want raw payload returned verbatim", got)
	}
}

func TestWatcherStateString(t *testing.T) {
	tests := []struct {
		state WatcherState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnected, "connected"},
		{StateListening, "listening"},
		{StateProcessing, "processing"},
		{WatcherState(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("WatcherState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
