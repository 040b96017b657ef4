// internal/adapter/notify/nats.go

package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sentiscan/internal/service/report"
)

// Config holds NATS connection settings
type Config struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
}

// RunEvent is published when a collection run ends
type RunEvent struct {
	RunID         string             `json:"run_id"`
	Topic         string             `json:"topic"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
	Interrupted   bool               `json:"interrupted"`
	Total         int                `json:"total"`
	MeanSentiment float64            `json:"mean_sentiment"`
	ByKind        []report.GroupStat `json:"by_kind"`
	ByCategory    []report.GroupStat `json:"by_category"`
	ExportFile    string             `json:"export_file,omitempty"`
}

// Publisher announces finished runs on the event bus
type Publisher struct {
	conn        Conn
	eventsTopic string
}

// NewPublisher creates a publisher writing under eventsTopic
func NewPublisher(conn Conn, eventsTopic string) *Publisher {
	if eventsTopic == "" {
		eventsTopic = "mentions"
	}
	return &Publisher{
		conn:        conn,
		eventsTopic: eventsTopic,
	}
}

// Subject returns the subject run events are published to
func (p *Publisher) Subject() string {
	return fmt.Sprintf("%s.run.completed", p.eventsTopic)
}

// PublishRunCompleted serializes e and publishes it
func (p *Publisher) PublishRunCompleted(e RunEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}

	if err := p.conn.Publish(p.Subject(), data); err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}

	// Flush so the event is on the wire before the process exits
	if err := p.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush run event: %w", err)
	}

	return nil
}

// Connect opens a NATS connection with reconnect logging
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("sentiscan"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
