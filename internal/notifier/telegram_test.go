package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalaryHedge/internal/model"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	messages []map[string]string
	failures int
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
			return
		}
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.messages = append(f.messages, payload)
		w.Write([]byte(`{"ok":true}`))
	})
	return mux
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *TelegramNotifier {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.RateDecimals = 2
	return n
}

func TestSend(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	require.NoError(t, n.Send(context.Background(), "hello"))
	require.Len(t, api.messages, 1)
	assert.Equal(t, "42", api.messages[0]["chat_id"])
	assert.Equal(t, "HTML", api.messages[0]["parse_mode"])
	assert.Equal(t, "hello", api.messages[0]["text"])
}

func TestSendReportsAPIError(t *testing.T) {
	api := &fakeBotAPI{failures: 1}
	n := newTestNotifier(t, api)
	err := n.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSendWithRetryHonoursContext(t *testing.T) {
	api := &fakeBotAPI{failures: 10}
	n := newTestNotifier(t, api)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.SendWithRetry(ctx, "hello", 3), context.Canceled)
}

func TestConversionAlert(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)
	cfg := model.UserConfig{User: "alice", LocalCurrency: "ARS", TotalProtected: model.NewAmount(210)}

	require.NoError(t, n.ConversionAlert(context.Background(), cfg, model.ConversionEvent{
		LocalAmount:  model.NewAmount(200),
		USDAmount:    model.NewAmount(210),
		ExchangeRate: model.NewAmount(95),
		Trigger:      model.TriggerManual,
	}))
	require.Len(t, api.messages, 1)
	assert.Contains(t, api.messages[0]["text"], "Manual conversion")
	assert.Contains(t, api.messages[0]["text"], "0.95 ARS/USD")
}

// outageServer answers every Bot API call with 502 and counts the calls.
func outageServer(t *testing.T, calls *atomic.Int32) *TelegramNotifier {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestSendWithRetryDoesNotWaitAfterLastAttempt(t *testing.T) {
	var calls atomic.Int32
	n := outageServer(t, &calls)

	begin := time.Now()
	err := n.SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(begin), 500*time.Millisecond)
}

func TestSendWithRetryBacksOffBetweenAttempts(t *testing.T) {
	var calls atomic.Int32
	n := outageServer(t, &calls)

	begin := time.Now()
	err := n.SendWithRetry(context.Background(), "hello", 1)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	elapsed := time.Since(begin)
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestConversionAlertStopsAtCallerDeadline(t *testing.T) {
	var calls atomic.Int32
	n := outageServer(t, &calls)
	cfg := model.UserConfig{User: "alice", LocalCurrency: "ARS"}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	begin := time.Now()
	err := n.ConversionAlert(ctx, cfg, model.ConversionEvent{Trigger: model.TriggerManual})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)
	assert.Equal(t, int32(1), calls.Load(), "no retry once the deadline has passed")
}
