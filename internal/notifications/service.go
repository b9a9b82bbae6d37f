package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"maestro/internal/config"
)

const userAgent = "Maestro/0.1.0"

// Service defines the notification surface exposed to the registry engine.
type Service interface {
	NotifyRegistrationCompleted(ctx context.Context, game, buildDir string, songCount int) error
	NotifyRegistrationFailed(ctx context.Context, game string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRegistrationCompleted(ctx context.Context, game, buildDir string, songCount int) error {
	data := payload{
		title:   "Maestro - Registration Complete",
		message: fmt.Sprintf("Registered %d songs for %s\nBuild dir: %s", songCount, game, buildDir),
		tags:    []string{"maestro", "registration", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRegistrationFailed(ctx context.Context, game string, failure error) error {
	detail := "unknown"
	if failure != nil {
		detail = strings.TrimSpace(failure.Error())
	}
	data := payload{
		title:    "Maestro - Registration Failed",
		message:  fmt.Sprintf("Registration for %s failed: %s", game, detail),
		tags:     []string{"maestro", "registration", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Maestro - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"maestro", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRegistrationCompleted(context.Context, string, string, int) error { return nil }
func (noopService) NotifyRegistrationFailed(context.Context, string, error) error          { return nil }
func (noopService) TestNotification(context.Context) error                                 { return nil }
