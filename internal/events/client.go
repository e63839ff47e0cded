// Package events publishes chat and seeding notifications to NATS so that
// downstream consumers (order follow-up, analytics) can react to them.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	EventChatAnswered  = "chat.answered"
	EventCatalogSeeded = "catalog.seeded"
)

// ChatAnswered is emitted after a chat turn has been answered and stored.
type ChatAnswered struct {
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	ListingIDs []string  `json:"listing_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// CatalogSeeded is emitted after the catalog has been written to the index.
type CatalogSeeded struct {
	Listings  int       `json:"listings"`
	Batches   int       `json:"batches"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func NewClient(url, token, prefix string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("laptoprag"),
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
	return &Client{conn: nc, prefix: prefix, logger: logger}, nil
}

// Subject returns the full subject for an event name.
func Subject(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

// Publish marshals data as JSON and publishes it under prefix.event.
func (c *Client) Publish(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(Subject(c.prefix, event), payload)
}

func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
