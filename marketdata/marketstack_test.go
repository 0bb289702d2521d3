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

func marketstackOver(srv *httptest.Server) *Marketstack {
	cfg := ProviderConfig{BaseURL: srv.URL, Key: "test-key"}
	return NewMarketstack(cfg, srv.Client(), zerolog.Nop())
}

func TestMarketstackIndexQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/eod/latest", r.URL.Path)
		assert.Equal(t, "^SPX", r.URL.Query().Get("symbols"))
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
		w.Write([]byte(`{"data": [{"symbol": "^SPX", "close": 6324.5, "date": "2025-07-08T00:00:00+0000"}]}`))
	}))
	defer srv.Close()

	q, err := marketstackOver(srv).Quote(context.Background(),
		Request{Symbol: "^SPX", Kind: Index, AsOf: date.MustParse("2025-07-09")})
	require.NoError(t, err)
	assert.Equal(t, 6324.5, q.Close)
	assert.Equal(t, date.MustParse("2025-07-08"), q.On)
	assert.Equal(t, "marketstack", q.Source)
}

func TestMarketstackEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	_, err := marketstackOver(srv).Quote(context.Background(),
		Request{Symbol: "NOPE", Kind: Stock, AsOf: date.MustParse("2025-07-09")})
	require.ErrorIs(t, err, ErrNoData)
}

func TestMarketstackRateLimitObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": "rate_limit_reached", "message": "too many requests"}}`))
	}))
	defer srv.Close()

	_, err := marketstackOver(srv).Quote(context.Background(),
		Request{Symbol: "^SPX", Kind: Index, AsOf: date.MustParse("2025-07-09")})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestMarketstackRefusesCrypto(t *testing.T) {
	_, err := marketstackOver(httptest.NewServer(http.NotFoundHandler())).Quote(context.Background(),
		Request{Symbol: "BTC", Kind: Crypto, AsOf: date.MustParse("2025-07-09")})
	require.ErrorIs(t, err, ErrNoData)
}
