package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"festmail/internal/config"
)

const userAgent = "festmail/0.1.0"

// RunSummary describes a finished dispatch run.
type RunSummary struct {
	Campaign string
	Mode     string
	Sent     int
	Failed   int
	Skipped  int
	// Remaining is the number of recipients still pending after the run.
	Remaining int
	Duration  time.Duration
}

// Service defines the notification surface exposed to commands.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent)
	return &ntfyService{
		endpoint: topic,
		client:   client,
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
	client   *resty.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	campaign := strings.TrimSpace(summary.Campaign)
	if campaign == "" {
		campaign = "campaign"
	}

	var title, message, priority string
	if summary.Failed == 0 {
		title = fmt.Sprintf("festmail - %s complete", campaign)
		message = fmt.Sprintf("📬 %d sent in %s", summary.Sent, duration)
	} else {
		title = fmt.Sprintf("festmail - %s complete (with failures)", campaign)
		message = fmt.Sprintf("📬 %d sent, %d failed in %s", summary.Sent, summary.Failed, duration)
		priority = "high"
	}
	if summary.Skipped > 0 {
		message += fmt.Sprintf("\n%d skipped (no usable address)", summary.Skipped)
	}
	if summary.Remaining > 0 {
		message += fmt.Sprintf("\n%d still pending", summary.Remaining)
	}

	tags := []string{"festmail", "dispatch", "completed"}
	if summary.Mode != "" {
		tags = append(tags, summary.Mode)
	}
	return n.send(ctx, payload{
		title:    title,
		message:  message,
		tags:     tags,
		priority: priority,
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "festmail - Error",
		message:  builder.String(),
		tags:     []string{"festmail", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "festmail - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"festmail", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetBody(data.message)
	if data.title != "" {
		req.SetHeader("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.SetHeader("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.SetHeader("Priority", data.priority)
	}

	resp, err := req.Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	if resp.StatusCode() >= 300 {
		body := resp.Body()
		if len(body) > 2048 {
			body = body[:2048]
		}
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
