// Package callback delivers finalized scam reports to the external
// collaborator endpoint. Delivery runs detached from the request path:
// it retries transient failures with exponential backoff and never
// surfaces an error to its caller.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scamshield/honeypot/internal/events"
	"github.com/scamshield/honeypot/internal/intel"
)

// Report is the final payload POSTed to the collaborator.
type Report struct {
	ReportID                  string         `json:"reportId"`
	SessionID                 string         `json:"sessionId"`
	ScamDetected              bool           `json:"scamDetected"`
	ScamType                  string         `json:"scamType,omitempty"`
	ConfidenceLevel           float64        `json:"confidenceLevel"`
	TotalMessagesExchanged    int            `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int            `json:"engagementDurationSeconds"`
	ExtractedIntelligence     intel.Snapshot `json:"extractedIntelligence"`
	AgentNotes                string         `json:"agentNotes"`
}

// Agent posts reports with a bounded retry budget. Any response status below
// 500 is terminal: a 4xx is a collaborator-side problem that retrying cannot
// fix. Status 5xx, timeouts and transport errors are retried on a doubling
// backoff until the attempt budget runs out.
type Agent struct {
	url         string
	client      *http.Client
	maxAttempts int
	baseBackoff time.Duration
	events      *events.Publisher // optional
	logger      *slog.Logger
}

func New(url string, timeout time.Duration, maxAttempts int, baseBackoff time.Duration, ev *events.Publisher, logger *slog.Logger) *Agent {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Agent{
		url:         url,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		events:      ev,
		logger:      logger,
	}
}

// Deliver posts the report, retrying per the backoff schedule. It blocks
// until a terminal outcome and is meant to run on a detached goroutine;
// failures are logged, never returned.
func (a *Agent) Deliver(ctx context.Context, report Report) {
	body, err := json.Marshal(report)
	if err != nil {
		a.logger.Error("callback marshal failed", "report_id", report.ReportID, "error", err)
		return
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		status, err := a.post(ctx, body)

		switch {
		case err == nil && status < http.StatusInternalServerError:
			if status >= http.StatusBadRequest {
				a.logger.Warn("collaborator rejected report",
					"report_id", report.ReportID, "status", status, "attempt", attempt)
			} else {
				a.logger.Info("report delivered",
					"report_id", report.ReportID, "status", status, "attempt", attempt)
			}
			a.announce(events.SubjectReportDelivered, report, attempt, status)
			return
		case err != nil:
			a.logger.Warn("callback attempt failed",
				"report_id", report.ReportID, "attempt", attempt, "error", err)
		default:
			a.logger.Warn("callback attempt failed",
				"report_id", report.ReportID, "attempt", attempt, "status", status)
		}

		if attempt == a.maxAttempts {
			break
		}

		backoff := a.baseBackoff << (attempt - 1)
		select {
		case <-ctx.Done():
			a.logger.Warn("callback delivery canceled",
				"report_id", report.ReportID, "attempt", attempt)
			return
		case <-time.After(backoff):
		}
	}

	a.logger.Warn("callback delivery exhausted",
		"report_id", report.ReportID, "attempts", a.maxAttempts)
	a.announce(events.SubjectReportFailed, report, a.maxAttempts, 0)
}

func (a *Agent) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (a *Agent) announce(subject string, report Report, attempts, status int) {
	if a.events == nil {
		return
	}
	err := a.events.Publish(subject, map[string]any{
		"report_id":  report.ReportID,
		"session_id": report.SessionID,
		"attempts":   attempts,
		"status":     status,
	})
	if err != nil {
		a.logger.Warn("failed to publish delivery event", "subject", subject, "error", err)
	}
}
