package processor

import (
	"time"

	"github.com/scamshield/honeypot/internal/intel"
)

const (
	SenderScammer = "scammer"
	SenderUser    = "user"
)

// Message is one conversation turn. The pipeline never mutates history, only
// reads it.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Request carries the full conversation state for one turn. The pipeline is
// stateless: accumulation happens by replaying over this history.
type Request struct {
	SessionID           string    `json:"sessionId"`
	Message             Message   `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
	Metadata            *Metadata `json:"metadata,omitempty"`
}

// EngagementMetrics are derived, never stored: recomputed each call from the
// supplied history's first and last timestamps.
type EngagementMetrics struct {
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
	TotalMessagesExchanged    int `json:"totalMessagesExchanged"`
}

type Response struct {
	Status                string            `json:"status"`
	ScamDetected          bool              `json:"scamDetected"`
	ScamType              string            `json:"scamType,omitempty"`
	ConfidenceLevel       float64           `json:"confidenceLevel"`
	EngagementMetrics     EngagementMetrics `json:"engagementMetrics"`
	ExtractedIntelligence intel.Snapshot    `json:"extractedIntelligence"`
	AgentNotes            string            `json:"agentNotes"`
	AgentReply            string            `json:"agentReply,omitempty"`
}
