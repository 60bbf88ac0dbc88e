package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBrevoEndpoint is Brevo's transactional send endpoint.
	DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"
	defaultBrevoTimeout  = 30 * time.Second
)

// BrevoOptions configures the Brevo transport.
type BrevoOptions struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Sender   Address
}

type brevoRequest struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	CC          []Address `json:"cc,omitempty"`
	ReplyTo     *Address  `json:"replyTo,omitempty"`
	Subject     string    `json:"subject"`
	TextContent string    `json:"textContent,omitempty"`
	HTMLContent string    `json:"htmlContent,omitempty"`
}

type brevoResponse struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

// Brevo sends messages through Brevo's transactional email API. It never
// retries; a failed call is reported once and left to the caller.
type Brevo struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	sender   Address
}

// NewBrevo constructs a Brevo transport with its own HTTP client.
func NewBrevo(opts BrevoOptions) (*Brevo, error) {
	return NewBrevoWithClient(opts, resty.New())
}

// NewBrevoWithClient constructs a Brevo transport around client.
func NewBrevoWithClient(opts BrevoOptions, client *resty.Client) (*Brevo, error) {
	if client == nil {
		return nil, errors.New("resty client is required")
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultBrevoEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid brevo endpoint: %w", err)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("brevo api key is required")
	}
	if strings.TrimSpace(opts.Sender.Email) == "" {
		return nil, errors.New("sender email is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultBrevoTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &Brevo{
		client:   client,
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(opts.APIKey),
		sender:   opts.Sender,
	}, nil
}

// Send posts msg and returns Brevo's messageId.
func (b *Brevo) Send(ctx context.Context, msg Message) (string, error) {
	if b == nil || b.client == nil {
		return "", errors.New("brevo transport is not initialized")
	}
	if len(msg.To) == 0 {
		return "", &SendError{Message: "message has no recipients"}
	}

	body := brevoRequest{
		Sender:      b.sender,
		To:          msg.To,
		CC:          msg.CC,
		ReplyTo:     msg.ReplyTo,
		Subject:     msg.Subject,
		TextContent: msg.Text,
		HTMLContent: msg.HTML,
	}

	response, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("api-key", b.apiKey).
		SetBody(body).
		Post(b.endpoint)
	if err != nil {
		return "", &SendError{Message: "request failed", Cause: err}
	}

	status := response.StatusCode()
	raw := strings.TrimSpace(response.String())
	var parsed brevoResponse
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &parsed)
	}

	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		if id := strings.TrimSpace(parsed.MessageID); id != "" {
			return id, nil
		}
		return "OK", nil
	}

	detail := strings.TrimSpace(parsed.Message)
	if detail == "" {
		detail = raw
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return "", &SendError{StatusCode: status, Message: detail}
}
