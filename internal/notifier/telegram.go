package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"SalaryHedge/internal/model"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	alertTimeout   = 2 * time.Minute
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *http.Client
	APIBase  string
	// RateDecimals is the fixed-point scale of oracle prices in messages.
	RateDecimals uint32
	// AlertRetries bounds SendWithRetry for conversion alerts.
	AlertRetries int
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		APIBase:      defaultAPIBase,
		AlertRetries: 2,
	}
}

func (t *TelegramNotifier) methodURL(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

// Send sends a message to the configured chat. The request is abandoned
// when ctx is done.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff between attempts.
// It gives up as soon as ctx is done.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return fmt.Errorf("send aborted after %d attempts: %w (last error: %v)", i, ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
		}
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return fmt.Errorf("send aborted after %d attempts: %w (last error: %v)", i+1, ctx.Err(), lastErr)
		}
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

// ConversionAlert reports a committed conversion to the chat. Delivery is
// bounded by ctx and by alertTimeout, whichever ends first.
func (t *TelegramNotifier) ConversionAlert(ctx context.Context, cfg model.UserConfig, evt model.ConversionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()
	return t.SendWithRetry(ctx, FormatConversionAlert(cfg, evt, t.RateDecimals), t.AlertRetries)
}
