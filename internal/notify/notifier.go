package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/IshaanNene/shelfwatch/internal/config"
)

// Notifier delivers human-readable session updates. Delivery is
// best-effort: a broken channel is logged and never interrupts a crawl.
type Notifier interface {
	// Notify sends one plain-text message.
	Notify(ctx context.Context, message string)

	// Channel returns the channel identifier.
	Channel() string
}

// New creates the configured notification channel.
func New(cfg config.NotifyConfig, logger *slog.Logger) (Notifier, error) {
	switch cfg.Channel {
	case "console", "":
		return NewConsoleNotifier(nil), nil
	case "log":
		return NewLogNotifier(logger), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook channel requires webhook_url")
		}
		return NewWebhookNotifier(cfg.WebhookURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown notify channel: %q", cfg.Channel)
	}
}

// ConsoleNotifier prints messages to a writer, one per line.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a console notifier. A nil writer means
// stdout.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Channel() string { return "console" }

func (n *ConsoleNotifier) Notify(ctx context.Context, message string) {
	fmt.Fprintln(n.out, message)
}

// LogNotifier routes messages through the structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Channel() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, message string) {
	n.logger.Info(message)
}

// WebhookNotifier posts messages as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With("component", "notifier"),
	}
}

func (n *WebhookNotifier) Channel() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, message string) {
	payload, _ := json.Marshal(map[string]any{
		"message":   message,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("notification failed", "channel", "webhook", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("notification failed", "channel", "webhook", "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		n.logger.Error("notification failed", "channel", "webhook", "status", resp.StatusCode)
	}
}
