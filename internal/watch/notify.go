package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/metrics"
	"github.com/secondlife/create/internal/pages"
)

// DefaultSubject is the NATS subject regeneration events are published to.
const DefaultSubject = "createdocs.regenerated"

// Notifier announces completed regenerations to downstream consumers
// (typically a site-build trigger).
type Notifier interface {
	PublishRegenerated(ctx context.Context, report *pages.Report) error
	Close()
}

// RegeneratedEvent is the wire payload published after a successful batch.
type RegeneratedEvent struct {
	RunID     string    `json:"run_id"`
	Finished  time.Time `json:"finished"`
	Pages     int       `json:"pages"`
	Written   int       `json:"written"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
}

// NATSNotifier publishes regeneration events to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to the NATS server at url. An empty subject falls
// back to DefaultSubject.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, nats.Name("createdocs"))
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "connect to NATS").
			WithContext("url", url)
	}
	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// PublishRegenerated sends the regeneration event for a finished batch.
func (n *NATSNotifier) PublishRegenerated(_ context.Context, report *pages.Report) error {
	written, unchanged := 0, 0
	for _, p := range report.Pages {
		switch p.Action {
		case metrics.ActionWritten:
			written++
		case metrics.ActionUnchanged:
			unchanged++
		}
	}
	payload, err := json.Marshal(RegeneratedEvent{
		RunID:     report.RunID,
		Finished:  report.Finished,
		Pages:     len(report.Pages),
		Written:   written,
		Unchanged: unchanged,
		Failed:    report.Failed(),
	})
	if err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityWarning, "marshal regeneration event")
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityWarning, "publish regeneration event")
	}
	return nil
}

// Close drains and closes the NATS connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
