package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scamshield/honeypot/internal/callback"
	"github.com/scamshield/honeypot/internal/events"
	"github.com/scamshield/honeypot/internal/gemini"
	"github.com/scamshield/honeypot/internal/intel"
	"github.com/scamshield/honeypot/internal/quality"
	"github.com/scamshield/honeypot/internal/repair"
)

// Processor orchestrates the per-turn analysis pipeline: replay regex
// extraction over the supplied history, run the model under a deadline, repair
// its output, merge intelligence, enforce reply quality and hand the final
// report to the delivery agent.
type Processor struct {
	model        *gemini.Client
	guard        *quality.Guard
	delivery     *callback.Agent
	events       *events.Publisher // optional
	modelTimeout time.Duration
	logger       *slog.Logger
}

func New(model *gemini.Client, guard *quality.Guard, delivery *callback.Agent, ev *events.Publisher, modelTimeout time.Duration, logger *slog.Logger) *Processor {
	return &Processor{
		model:        model,
		guard:        guard,
		delivery:     delivery,
		events:       ev,
		modelTimeout: modelTimeout,
		logger:       logger,
	}
}

// Process analyzes one turn. It always produces a response: model or delivery
// failure only degrades the response content, never fails the call.
func (p *Processor) Process(ctx context.Context, req *Request) *Response {
	regexSnap := p.replayExtraction(req)
	result := p.analyze(ctx, req)
	merged := intel.Merge(regexSnap, result.Intelligence)
	reply, notes := p.guard.Ensure(result.Reply, result.Notes, merged)
	metrics := computeMetrics(req)

	p.logger.Info("turn analyzed",
		"session_id", req.SessionID,
		"scam_detected", result.ScamDetected,
		"scam_type", result.ScamType,
		"intel_items", merged.Total(),
		"messages", metrics.TotalMessagesExchanged,
	)

	resp := &Response{
		Status:                "success",
		ScamDetected:          result.ScamDetected,
		ScamType:              result.ScamType,
		ConfidenceLevel:       result.Confidence,
		EngagementMetrics:     metrics,
		ExtractedIntelligence: merged,
		AgentNotes:            notes,
		AgentReply:            reply,
	}

	if p.events != nil {
		if err := p.events.Publish(events.SubjectSessionAnalyzed, map[string]any{
			"session_id":    req.SessionID,
			"scam_detected": result.ScamDetected,
			"intel_items":   merged.Total(),
		}); err != nil {
			p.logger.Warn("failed to publish session event", "error", err)
		}
	}

	// Ship the final report only once the model confirms both scam intent and
	// extraction completeness. Detached: the response above is already built
	// and delivery must not block or fail it.
	if result.ScamDetected && result.ShouldTriggerCallback && p.delivery != nil {
		report := callback.Report{
			ReportID:                  uuid.NewString(),
			SessionID:                 req.SessionID,
			ScamDetected:              result.ScamDetected,
			ScamType:                  result.ScamType,
			ConfidenceLevel:           result.Confidence,
			TotalMessagesExchanged:    metrics.TotalMessagesExchanged,
			EngagementDurationSeconds: metrics.EngagementDurationSeconds,
			ExtractedIntelligence:     merged,
			AgentNotes:                notes,
		}
		go p.delivery.Deliver(context.Background(), report)
	}

	return resp
}

// analyze runs the model under a bounded deadline and repairs its output.
// On timeout, transport failure or unrepairable output it substitutes the
// local fallback result instead of propagating.
func (p *Processor) analyze(ctx context.Context, req *Request) *repair.Result {
	mctx, cancel := context.WithTimeout(ctx, p.modelTimeout)
	defer cancel()

	raw, err := p.model.Analyze(mctx, buildConversationText(req))
	if err != nil {
		p.logger.Warn("model call failed, using fallback analysis",
			"session_id", req.SessionID, "error", err)
		return fallbackResult()
	}

	result, err := repair.Parse(raw)
	if err != nil {
		p.logger.Warn("model output unusable, using fallback analysis",
			"session_id", req.SessionID, "error", err)
		return fallbackResult()
	}
	return result
}

// fallbackResult is the deterministic local substitute for a failed model
// call. It flags the conversation as a suspected scam: a honeypot that
// mislabels a scam as clean stops engaging and loses intelligence, while the
// inverse error costs nothing.
func fallbackResult() *repair.Result {
	return &repair.Result{
		ScamDetected: true,
		ScamType:     "unknown",
		Confidence:   0.5,
		Intelligence: intel.Snapshot{}.Normalize(),
	}
}

// replayExtraction recomputes regex extraction over every scammer-attributed
// turn in the supplied history plus the current message. The honeypot's own
// replies carry fabricated bait and are not mined.
func (p *Processor) replayExtraction(req *Request) intel.Snapshot {
	snap := intel.Snapshot{}.Normalize()
	for _, msg := range req.ConversationHistory {
		if msg.Sender == SenderScammer {
			snap = intel.Merge(snap, intel.Extract(msg.Text))
		}
	}
	if req.Message.Sender == SenderScammer {
		snap = intel.Merge(snap, intel.Extract(req.Message.Text))
	}
	return snap
}

func computeMetrics(req *Request) EngagementMetrics {
	start := req.Message.Timestamp
	if len(req.ConversationHistory) > 0 {
		start = req.ConversationHistory[0].Timestamp
	}

	duration := int(req.Message.Timestamp.Sub(start).Seconds())
	if duration < 0 {
		duration = 0
	}

	return EngagementMetrics{
		EngagementDurationSeconds: duration,
		TotalMessagesExchanged:    len(req.ConversationHistory) + 1,
	}
}

// buildConversationText renders the session as a chronological transcript for
// the model prompt.
func buildConversationText(req *Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "sessionId: %s\n", req.SessionID)
	if req.Metadata != nil {
		fmt.Fprintf(&sb, "channel=%s, language=%s, locale=%s\n",
			req.Metadata.Channel, req.Metadata.Language, req.Metadata.Locale)
	}
	sb.WriteString("\nConversation so far:\n")
	for _, msg := range req.ConversationHistory {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", msg.Timestamp.Format(time.RFC3339), msg.Sender, msg.Text)
	}
	fmt.Fprintf(&sb, "[%s] %s: %s\n",
		req.Message.Timestamp.Format(time.RFC3339), req.Message.Sender, req.Message.Text)

	return sb.String()
}
