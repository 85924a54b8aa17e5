// Package events publishes content lifecycle events to NATS JetStream so that downstream
// consumers (push notifications, search indexing) can follow what is published.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
)

const (
	ACTION_PUBLISHED   = "published"
	ACTION_UNPUBLISHED = "unpublished"
	ACTION_DELETED     = "deleted"
)

const (
	DEFAULT_STREAM_NAME   = "CMS_CONTENT"
	DEFAULT_STREAM_MAXAGE = 7 * 24 * time.Hour
	SUBJECT_ROOT          = "content"
	EVENT_VERSION         = "1"
)

type Config struct {
	URL        string        `yaml:"url"`
	StreamName string        `yaml:"stream_name"`
	MaxAge     time.Duration `yaml:"max_age"`
}

type Publisher interface {
	PublishContentEvent(action string, item contentTypes.Item) error
	Close() error
}

type Envelope struct {
	Type          string         `json:"type"`
	Version       string         `json:"version"`
	OccurredAt    time.Time      `json:"occurredAt"`
	CorrelationID string         `json:"correlationId"`
	Payload       ContentPayload `json:"payload"`
}

type ContentPayload struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Subject returns the subject an event is published on, e.g. content.video.published.
func Subject(kind string, action string) string {
	return fmt.Sprintf("%s.%s.%s", SUBJECT_ROOT, kind, action)
}

// NewEnvelope wraps the item into the event format shared by all content events.
func NewEnvelope(action string, item contentTypes.Item, now time.Time) Envelope {
	return Envelope{
		Type:          Subject(item.Kind, action),
		Version:       EVENT_VERSION,
		OccurredAt:    now.UTC(),
		CorrelationID: uuid.NewString(),
		Payload: ContentPayload{
			ID:          item.ID.Hex(),
			Kind:        item.Kind,
			Title:       item.Title,
			Category:    item.Category,
			Status:      item.Status,
			PublishedAt: item.PublishedAt,
		},
	}
}

type noop struct{}

func (n *noop) PublishContentEvent(action string, item contentTypes.Item) error { return nil }

func (n *noop) Close() error { return nil }

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher {
	return &noop{}
}

type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the content stream exists. Without a URL, or
// when NATS cannot be reached, events are dropped and the API keeps working.
func NewPublisher(cfg Config) Publisher {
	if cfg.URL == "" {
		slog.Info("no NATS url configured, content events are disabled")
		return &noop{}
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("cms-api"))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", slog.String("error", err.Error()))
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", slog.String("error", err.Error()))
		nc.Close()
		return &noop{}
	}

	if err := initStream(js, cfg); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", slog.String("error", err.Error()))
		nc.Close()
		return &noop{}
	}
	return &natsPub{nc: nc, js: js}
}

func initStream(js nats.JetStreamContext, cfg Config) error {
	name := cfg.StreamName
	if name == "" {
		name = DEFAULT_STREAM_NAME
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DEFAULT_STREAM_MAXAGE
	}

	streamCfg := &nats.StreamConfig{
		Name:      name,
		Subjects:  []string{SUBJECT_ROOT + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAge,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	}
	if _, err := js.StreamInfo(name); err == nil {
		_, err = js.UpdateStream(streamCfg)
		return err
	}
	if _, err := js.AddStream(streamCfg); err != nil {
		return fmt.Errorf("failed to create %s stream: %w", name, err)
	}
	return nil
}

func (p *natsPub) PublishContentEvent(action string, item contentTypes.Item) error {
	env := NewEnvelope(action, item, time.Now())
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(env.Type, data, nats.MsgId(env.CorrelationID))
	return err
}

func (p *natsPub) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
			return err
		}
	}
	return nil
}
