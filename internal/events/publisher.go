// Package events announces pipeline milestones on NATS. The announcer is
// optional: the service runs fine with it unconfigured, the same way it runs
// without a callback endpoint.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectRegistered announces service startup.
	SubjectRegistered = "honeypot.agent.registered"
	// SubjectSessionAnalyzed is published after each processed turn.
	SubjectSessionAnalyzed = "honeypot.session.analyzed"
	// SubjectReportDelivered is published on terminal delivery success.
	SubjectReportDelivered = "honeypot.report.delivered"
	// SubjectReportFailed is published when the retry budget is exhausted.
	SubjectReportFailed = "honeypot.report.failed"
)

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func Connect(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

func (p *Publisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
