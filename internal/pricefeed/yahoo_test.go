package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[604800,691200,1209600],
"indicators":{"quote":[{"close":[100.5,null,95.25]}]}}],"error":null}}`

func TestYahooFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/ARS=X", r.URL.Path)
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	feed := NewYahooFeed("", 2)
	feed.BaseURL = srv.URL
	ctx := context.Background()

	latest, ok, err := feed.LatestPrice(ctx, "ARS=X")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "9525", latest.Price.String())
	assert.Equal(t, uint64(1209600), latest.Timestamp)

	at, ok, err := feed.PriceAt(ctx, "ARS=X", 1000000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10050", at.Price.String(), "null bar is skipped")

	_, ok, err = feed.PriceAt(ctx, "ARS=X", 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYahooFeed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	feed := NewYahooFeed("", 2)
	feed.BaseURL = srv.URL
	_, ok, err := feed.LatestPrice(context.Background(), "XXX=X")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestYahooTicker(t *testing.T) {
	assert.Equal(t, Asset("ARSUSD=X"), YahooTicker("ars"))
	assert.Equal(t, Asset("BRLUSD=X"), YahooTicker(" BRL "))
}
