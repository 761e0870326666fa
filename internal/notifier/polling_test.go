package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPollingAnswersCommands(t *testing.T) {
	api := &fakeBotAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.Handle("/botTOKEN/sendMessage", api.handler(t))
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /currencies "}},
				{"update_id":8,"message":{"text":"/ignored"}}
			]}`))
		default:
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	var seen []string
	n.StartPolling(ctx, func(_ context.Context, cmd string) string {
		seen = append(seen, cmd)
		if cmd == "/currencies" {
			return FormatCurrencies([]string{"ARS"})
		}
		return ""
	})

	assert.Equal(t, []string{"/currencies", "/ignored"}, seen)
	require.Len(t, api.messages, 1)
	assert.Equal(t, "💱 Supported currencies: ARS", api.messages[0]["text"])
}

func TestStartPollingStopsDuringRetryDelay(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		http.Error(w, `{"ok":false,"description":"Bad Gateway"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	begin := time.Now()
	n.StartPolling(ctx, func(context.Context, string) string { return "" })

	assert.Less(t, time.Since(begin), time.Second)
	assert.Equal(t, int32(1), polls.Load())
}
