// Package notify posts accepted submissions to an external webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"application-intake-go/internal/config"

	"github.com/go-resty/resty/v2"
)

type Event struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Table          string    `json:"table"`
	Row            int       `json:"row"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ResumeFilename string    `json:"resume_filename,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type Webhook struct {
	url        string
	httpClient *resty.Client
}

// NewWebhookFromConfig returns nil when no webhook URL is configured.
func NewWebhookFromConfig(cfg config.Config) *Webhook {
	url := strings.TrimSpace(cfg.NotifyWebhookURL)
	if url == "" {
		return nil
	}
	retryCount := cfg.HttpRetryCount
	if retryCount <= 0 {
		retryCount = 3
	}
	baseDelay := time.Duration(cfg.HttpRetryBaseDelayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	maxDelay := time.Duration(cfg.HttpRetryMaxDelayMs) * time.Millisecond
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	timeout := time.Duration(cfg.HttpTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWebhook(url, &http.Client{Timeout: timeout}, retryCount, baseDelay, maxDelay)
}

func NewWebhook(url string, hc *http.Client, retryCount int, baseDelay, maxDelay time.Duration) *Webhook {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	rc := resty.NewWithClient(hc)
	rc.SetHeader("content-type", "application/json")
	rc.SetHeader("user-agent", "application-intake-go")
	rc.SetRetryCount(retryCount)
	rc.SetRetryWaitTime(baseDelay)
	rc.SetRetryMaxWaitTime(maxDelay)
	rc.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return shouldRetryError(err)
		}
		if r == nil {
			return true
		}
		return shouldRetryStatus(r.StatusCode())
	})
	return &Webhook{url: url, httpClient: rc}
}

func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := w.httpClient.R().SetContext(ctx).SetBody(ev).Post(w.url)
	if err != nil {
		return err
	}
	if r.IsError() {
		return newStatusError(w.url, r.StatusCode(), r.String())
	}
	return nil
}

func shouldRetryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

func shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("webhook %s: http status=%d", e.URL, e.StatusCode)
	if e.Body != "" {
		msg += " body=" + e.Body
	}
	return msg
}

func newStatusError(url string, code int, body string) error {
	snippet := strings.TrimSpace(body)
	const maxSnippet = 512
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return &StatusError{URL: url, StatusCode: code, Body: snippet}
}
