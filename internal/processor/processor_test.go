package processor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scamshield/honeypot/internal/callback"
	"github.com/scamshield/honeypot/internal/gemini"
	"github.com/scamshield/honeypot/internal/quality"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// modelServer wraps raw model output in the generateContent response shape.
func modelServer(t *testing.T, raw string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": raw}}}},
			},
		})
	}))
}

func newTestProcessor(t *testing.T, modelURL, callbackURL string) *Processor {
	t.Helper()
	model := gemini.NewClient("test-key", "test-model")
	model.SetTestTransport(modelURL)
	agent := callback.New(callbackURL, time.Second, 2, 5*time.Millisecond, nil, discardLogger())
	return New(model, quality.New(), agent, nil, time.Second, discardLogger())
}

func scammerRequest(text string) *Request {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Request{
		SessionID: "session-1",
		Message:   Message{Sender: SenderScammer, Text: text, Timestamp: base.Add(2 * time.Minute)},
		ConversationHistory: []Message{
			{Sender: SenderScammer, Text: "Your account is blocked. Act now!", Timestamp: base},
			{Sender: SenderUser, Text: "Oh no, what should I do?", Timestamp: base.Add(time.Minute)},
		},
	}
}

const modelJSON = `{"scamDetected":true,"scamType":"upi_fraud","confidence":0.85,` +
	`"agentReply":"This seems unusual. Can you share your employee ID?",` +
	`"intelligence":{"upiIds":["model@ybl"],"suspiciousKeywords":["urgent","blocked"]},` +
	`"shouldTriggerCallback":false,` +
	`"agentNotes":"Classic UPI fraud pressure tactics."}`

func TestProcess_MergesRegexAndModelIntelligence(t *testing.T) {
	model := modelServer(t, modelJSON)
	defer model.Close()

	proc := newTestProcessor(t, model.URL, "http://127.0.0.1:0")
	resp := proc.Process(context.Background(), scammerRequest("Pay to fraud@ybl or call +91-9876543210"))

	if resp.Status != "success" {
		t.Errorf("expected status success, got %q", resp.Status)
	}
	if !resp.ScamDetected || resp.ScamType != "upi_fraud" {
		t.Errorf("unexpected classification: %+v", resp)
	}

	intelGot := resp.ExtractedIntelligence
	for _, want := range []string{"fraud@ybl", "model@ybl"} {
		found := false
		for _, v := range intelGot.PaymentHandles {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %q in merged payment handles, got %v", want, intelGot.PaymentHandles)
		}
	}
	if len(intelGot.PhoneNumbers) == 0 {
		t.Errorf("expected regex-extracted phone in merged snapshot")
	}
	if len(intelGot.SuspiciousKeywords) != 2 {
		t.Errorf("expected model keywords in merged snapshot, got %v", intelGot.SuspiciousKeywords)
	}

	if resp.EngagementMetrics.TotalMessagesExchanged != 3 {
		t.Errorf("expected 3 messages, got %d", resp.EngagementMetrics.TotalMessagesExchanged)
	}
	if resp.EngagementMetrics.EngagementDurationSeconds != 120 {
		t.Errorf("expected 120s duration, got %d", resp.EngagementMetrics.EngagementDurationSeconds)
	}
}

func TestProcess_FallbackOnModelFailure(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer model.Close()

	proc := newTestProcessor(t, model.URL, "http://127.0.0.1:0")
	resp := proc.Process(context.Background(), scammerRequest("send money now"))

	if !resp.ScamDetected {
		t.Error("fallback should flag conversation as suspected scam")
	}
	if resp.ScamType != "unknown" {
		t.Errorf("expected scamType unknown, got %q", resp.ScamType)
	}
	if resp.ConfidenceLevel != 0.5 {
		t.Errorf("expected fallback confidence 0.5, got %f", resp.ConfidenceLevel)
	}
	if strings.TrimSpace(resp.AgentReply) == "" {
		t.Error("expected non-empty fallback reply")
	}
	if strings.TrimSpace(resp.AgentNotes) == "" {
		t.Error("expected non-empty fallback notes")
	}
}

func TestProcess_FallbackOnUnrepairableOutput(t *testing.T) {
	model := modelServer(t, "I refuse to answer in JSON.")
	defer model.Close()

	proc := newTestProcessor(t, model.URL, "http://127.0.0.1:0")
	resp := proc.Process(context.Background(), scammerRequest("hello"))

	if !resp.ScamDetected || resp.ScamType != "unknown" {
		t.Errorf("expected fallback result, got %+v", resp)
	}
}

func TestProcess_RepairsTruncatedModelOutput(t *testing.T) {
	truncated := "```json\n" + modelJSON[:strings.Index(modelJSON, "pressure")]
	model := modelServer(t, truncated)
	defer model.Close()

	proc := newTestProcessor(t, model.URL, "http://127.0.0.1:0")
	resp := proc.Process(context.Background(), scammerRequest("hello"))

	// The truncated output still carried the reply and intelligence, so the
	// repaired model result is used instead of the fallback.
	if resp.ScamType != "upi_fraud" {
		t.Errorf("expected repaired model result, got %+v", resp)
	}
	if resp.ConfidenceLevel != 0.85 {
		t.Errorf("expected model confidence preserved, got %f", resp.ConfidenceLevel)
	}
}

func TestProcess_TriggersCallbackWhenConfirmed(t *testing.T) {
	confirmed := strings.Replace(modelJSON, `"shouldTriggerCallback":false`, `"shouldTriggerCallback":true`, 1)
	model := modelServer(t, confirmed)
	defer model.Close()

	received := make(chan callback.Report, 1)
	collab := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var report callback.Report
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			t.Errorf("failed to decode report: %v", err)
		}
		received <- report
		w.WriteHeader(http.StatusOK)
	}))
	defer collab.Close()

	proc := newTestProcessor(t, model.URL, collab.URL)
	resp := proc.Process(context.Background(), scammerRequest("Pay to fraud@ybl now"))

	select {
	case report := <-received:
		if report.SessionID != "session-1" {
			t.Errorf("expected session-1, got %q", report.SessionID)
		}
		if report.ReportID == "" {
			t.Error("expected a report id")
		}
		if !report.ScamDetected || report.ScamType != "upi_fraud" {
			t.Errorf("unexpected report classification: %+v", report)
		}
		if report.TotalMessagesExchanged != resp.EngagementMetrics.TotalMessagesExchanged {
			t.Errorf("report metrics diverge from response metrics")
		}
		found := false
		for _, v := range report.ExtractedIntelligence.PaymentHandles {
			if v == "fraud@ybl" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected merged intelligence in report, got %v", report.ExtractedIntelligence.PaymentHandles)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback was never delivered")
	}
}

func TestProcess_NoCallbackWithoutConfirmation(t *testing.T) {
	model := modelServer(t, modelJSON) // shouldTriggerCallback false
	defer model.Close()

	received := make(chan struct{}, 1)
	collab := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer collab.Close()

	proc := newTestProcessor(t, model.URL, collab.URL)
	proc.Process(context.Background(), scammerRequest("hello"))

	select {
	case <-received:
		t.Fatal("callback fired without shouldTriggerCallback")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReplayExtraction_SkipsHoneypotTurns(t *testing.T) {
	proc := newTestProcessor(t, "http://127.0.0.1:0", "http://127.0.0.1:0")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := &Request{
		SessionID: "s",
		Message:   Message{Sender: SenderScammer, Text: "ok", Timestamp: base.Add(time.Minute)},
		ConversationHistory: []Message{
			{Sender: SenderUser, Text: "my number is 9876543210", Timestamp: base},
		},
	}

	snap := proc.replayExtraction(req)
	if len(snap.PhoneNumbers) != 0 {
		t.Errorf("honeypot's own turn was mined for intelligence: %v", snap.PhoneNumbers)
	}
}

func TestComputeMetrics_EmptyHistory(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := &Request{
		SessionID: "s",
		Message:   Message{Sender: SenderScammer, Text: "hi", Timestamp: ts},
	}

	m := computeMetrics(req)
	if m.TotalMessagesExchanged != 1 {
		t.Errorf("expected 1 message, got %d", m.TotalMessagesExchanged)
	}
	if m.EngagementDurationSeconds != 0 {
		t.Errorf("expected 0s duration, got %d", m.EngagementDurationSeconds)
	}
}

func TestComputeMetrics_NegativeDurationClamped(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := &Request{
		SessionID: "s",
		Message:   Message{Sender: SenderScammer, Text: "hi", Timestamp: ts},
		ConversationHistory: []Message{
			{Sender: SenderScammer, Text: "later", Timestamp: ts.Add(time.Hour)},
		},
	}

	m := computeMetrics(req)
	if m.EngagementDurationSeconds != 0 {
		t.Errorf("expected clamped duration, got %d", m.EngagementDurationSeconds)
	}
}

func TestBuildConversationText(t *testing.T) {
	req := scammerRequest("final message")
	req.Metadata = &Metadata{Channel: "sms", Language: "en", Locale: "IN"}

	text := buildConversationText(req)

	if !strings.Contains(text, "sessionId: session-1") {
		t.Errorf("missing session line:\n%s", text)
	}
	if !strings.Contains(text, "channel=sms") {
		t.Errorf("missing metadata line:\n%s", text)
	}
	if !strings.Contains(text, "scammer: Your account is blocked. Act now!") {
		t.Errorf("missing history turn:\n%s", text)
	}
	if !strings.Contains(text, "scammer: final message") {
		t.Errorf("missing current message:\n%s", text)
	}
	if strings.Index(text, "Your account is blocked") > strings.Index(text, "final message") {
		t.Errorf("turns out of order:\n%s", text)
	}
}
