package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	EnqueueSubject = "floats.enqueue"
	SettledSubject = "floats.settled"
)

type Client struct {
	conn *nats.Conn
}

func NewClient(url string) (*Client, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) PublishEnqueue(msg *EnqueueMessage) error {
	return c.publish(EnqueueSubject, msg)
}

func (c *Client) PublishSettled(msg *SettledMessage) error {
	return c.publish(SettledSubject, msg)
}

// Flush waits until the server has processed everything published so far
func (c *Client) Flush() error {
	return c.conn.Flush()
}

func (c *Client) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", subject, err)
	}

	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	return nil
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
