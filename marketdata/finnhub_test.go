package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantuminvestor/ledger/date"
)

func finnhubOver(srv *httptest.Server) *Finnhub {
	cfg := ProviderConfig{BaseURL: srv.URL, Key: "test-key"}
	return NewFinnhub(cfg, srv.Client(), zerolog.Nop())
}

func TestFinnhubQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "RKLB", r.URL.Query().Get("symbol"))
		// 2025-07-08T20:00:00Z
		w.Write([]byte(`{"c": 36.71, "h": 37.0, "l": 35.9, "o": 36.1, "pc": 36.2, "t": 1751990400}`))
	}))
	defer srv.Close()

	q, err := finnhubOver(srv).Quote(context.Background(),
		Request{Symbol: "RKLB", Kind: Stock, AsOf: date.MustParse("2025-07-09")})
	require.NoError(t, err)
	assert.Equal(t, 36.71, q.Close)
	assert.Equal(t, date.MustParse("2025-07-08"), q.On)
	assert.Equal(t, "finnhub", q.Source)
}

func TestFinnhubMapsCryptoToBinancePair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BINANCE:BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"c": 108213.45, "t": 1751990400}`))
	}))
	defer srv.Close()

	q, err := finnhubOver(srv).Quote(context.Background(),
		Request{Symbol: "BTC", Kind: Crypto, AsOf: date.MustParse("2025-07-09")})
	require.NoError(t, err)
	assert.Equal(t, 108213.45, q.Close)
	assert.Equal(t, "BTC", q.Symbol, "the ledger symbol survives the pair mapping")
}

func TestFinnhubEmptyQuoteIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown symbols answer 200 with zeroes.
		w.Write([]byte(`{"c": 0, "h": 0, "l": 0, "o": 0, "pc": 0, "t": 0}`))
	}))
	defer srv.Close()

	_, err := finnhubOver(srv).Quote(context.Background(),
		Request{Symbol: "NOPE", Kind: Stock, AsOf: date.MustParse("2025-07-09")})
	require.ErrorIs(t, err, ErrNoData)
}

func TestFinnhubThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "API limit reached", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := finnhubOver(srv).Quote(context.Background(),
		Request{Symbol: "RKLB", Kind: Stock, AsOf: date.MustParse("2025-07-09")})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
