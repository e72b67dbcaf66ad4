package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers an alert message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// CommandNotifier runs an external command with the message as its last
// argument, e.g. `wall <message>`. No shell is involved.
type CommandNotifier struct {
	Name string
	Args []string
}

func NewCommandNotifier(name string, args ...string) *CommandNotifier {
	return &CommandNotifier{Name: name, Args: args}
}

func (c *CommandNotifier) Notify(ctx context.Context, message string) error {
	args := append(append([]string{}, c.Args...), message)
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("command %s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WebhookNotifier posts alerts as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, message string) error {
	payload := map[string]string{
		"message": message,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only writes the alert to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Info("alert", zap.String("message", message))
	return nil
}

// MultiNotifier fans a message out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
