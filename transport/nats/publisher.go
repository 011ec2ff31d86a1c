package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// SubjectPrefix is the root token of every game event subject
const SubjectPrefix = "memory"

// Publisher fans game events out to NATS subjects of the form
// memory.<session>.<event>
type Publisher struct {
	conn   *nats.Conn
	owned  bool
	logger *logrus.Logger
}

// Connect dials the NATS server at url and returns a Publisher owning the connection
func Connect(url string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := []nats.Option{
		nats.Name("memorymatch-server"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}

	p := NewPublisher(conn, logger)
	p.owned = true
	return p, nil
}

// NewPublisher wraps an existing connection; Close will not close it
func NewPublisher(conn *nats.Conn, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Subject returns the subject an event type for a session is published on
func Subject(sessionID, eventType string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, token(sessionID), token(eventType))
}

// SessionWildcard matches every event of one session
func SessionWildcard(sessionID string) string {
	return fmt.Sprintf("%s.%s.*", SubjectPrefix, token(sessionID))
}

// AllEvents matches every game event of every session
func AllEvents() string {
	return SubjectPrefix + ".>"
}

// token lower-cases s and replaces characters NATS treats as separators or wildcards
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, strings.ToLower(s))
}

// Publish sends the event as JSON. It implements service.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event service.GameEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal game event: %w", err)
	}

	subject := Subject(event.SessionID, event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject": subject,
		"game_id": event.GameID,
	}).Debug("Game event published")
	return nil
}

// Subscribe calls handler for each event matching subject until the returned
// subscription is drained or unsubscribed. Undecodable messages are logged and skipped.
func (p *Publisher) Subscribe(subject string, handler func(service.GameEvent)) (*nats.Subscription, error) {
	sub, err := p.conn.Subscribe(subject, func(m *nats.Msg) {
		var event service.GameEvent
		if err := json.Unmarshal(m.Data, &event); err != nil {
			p.logger.WithError(err).WithField("subject", m.Subject).Warn("Dropping undecodable game event")
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Flush waits until the server has processed everything published so far
func (p *Publisher) Flush(ctx context.Context) error {
	return p.conn.FlushWithContext(ctx)
}

// Close drains the connection if the publisher opened it
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}

var _ service.EventPublisher = (*Publisher)(nil)
