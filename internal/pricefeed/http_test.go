package pricefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOracleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oracles/ORACLE/assets/ARS/lastprice", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"price": "95", "timestamp": 1209600})
	})
	mux.HandleFunc("/v1/oracles/ORACLE/assets/ARS/price", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("timestamp") {
		case "604800":
			_, _ = w.Write([]byte(`{"price":100,"timestamp":604800}`))
		case "1":
			_, _ = w.Write([]byte(`{"price":null}`))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/v1/oracles/ORACLE/assets/BRL/lastprice", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	mux.HandleFunc("/v1/oracles/ORACLE/decimals", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"decimals":14}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFeed(t *testing.T) {
	srv := newOracleServer(t)
	feed := NewHTTPFeed(srv.URL+"/", "ORACLE", "secret", "", 0)
	ctx := context.Background()

	latest, ok, err := feed.LatestPrice(ctx, "ARS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "95", latest.Price.String())
	assert.Equal(t, uint64(1209600), latest.Timestamp)

	past, ok, err := feed.PriceAt(ctx, "ARS", 604800)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "100", past.Price.String())

	_, ok, err = feed.PriceAt(ctx, "ARS", 1)
	require.NoError(t, err)
	assert.False(t, ok, "null price is absent")

	_, ok, err = feed.PriceAt(ctx, "ARS", 2)
	require.NoError(t, err)
	assert.False(t, ok, "404 is absent")

	_, ok, err = feed.LatestPrice(ctx, "BRL")
	assert.Error(t, err)
	assert.False(t, ok)

	dec, err := feed.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(14), dec)
}

func TestHTTPFeed_RateLimitedRespectsContext(t *testing.T) {
	srv := newOracleServer(t)
	feed := NewHTTPFeed(srv.URL, "ORACLE", "secret", "", 0.001)
	ctx := context.Background()

	_, _, err := feed.LatestPrice(ctx, "ARS")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = feed.LatestPrice(cancelled, "ARS")
	assert.Error(t, err)
}
