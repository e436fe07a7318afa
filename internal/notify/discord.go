// Package notify forwards team notifications to a Discord webhook as a
// formatted embed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnconfigured is returned when no webhook URL is set.
var ErrUnconfigured = errors.New("notify: webhook not configured")

// embed colors per notification type.
var colors = map[string]int{
	"info":    0x3498db,
	"success": 0x2ecc71,
	"warning": 0xf1c40f,
	"error":   0xe74c3c,
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Discord posts embeds to a configured webhook URL.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord builds a notifier. An empty URL yields a notifier that always
// returns ErrUnconfigured.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a webhook URL is set.
func (d *Discord) Configured() bool { return d.webhookURL != "" }

// Send posts one message. typ selects the embed color and defaults to info.
func (d *Discord) Send(ctx context.Context, message, typ string) error {
	if !d.Configured() {
		return ErrUnconfigured
	}
	color, ok := colors[typ]
	if !ok {
		color = colors["info"]
	}
	body, err := json.Marshal(webhookPayload{Embeds: []embed{{
		Title:       "Shinel Studios",
		Description: message,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}
