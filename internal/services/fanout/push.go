package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/notify"
)

type NtfyConfig struct {
	Server  string        `mapstructure:"server"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c NtfyConfig) Enabled() bool { return c.Server != "" }

type ntfyAction struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	URL    string `json:"url"`
	Clear  bool   `json:"clear,omitempty"`
}

type ntfyPayload struct {
	Topic   string       `json:"topic"`
	Title   string       `json:"title,omitempty"`
	Message string       `json:"message,omitempty"`
	Tags    []string     `json:"tags,omitempty"`
	Click   string       `json:"click,omitempty"`
	Actions []ntfyAction `json:"actions,omitempty"`
}

var _ notify.PushSender = (*NtfyClient)(nil)

// NtfyClient posts push notifications to an ntfy server, one topic per
// recipient.
type NtfyClient struct {
	base  string
	token string
	hc    *http.Client
	log   *zap.Logger
}

func NewNtfy(cfg NtfyConfig, log *zap.Logger) *NtfyClient {
	base := cfg.Server
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfyClient{
		base:  strings.TrimRight(base, "/"),
		token: cfg.Token,
		hc:    &http.Client{Timeout: timeout},
		log:   log.With(zap.String("component", "fanout.ntfy")),
	}
}

func (c *NtfyClient) Send(ctx context.Context, topic, title, message string, tags []string, click string) error {
	p := ntfyPayload{
		Topic:   topic,
		Title:   title,
		Message: message,
		Tags:    tags,
		Click:   click,
	}
	if click != "" {
		p.Actions = []ntfyAction{{Action: "view", Label: "Öffnen", URL: click}}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal ntfy payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy post: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ntfy post: unexpected status %s", resp.Status)
	}

	c.log.Debug("push sent", zap.String("topic", topic), zap.String("title", title))
	return nil
}
