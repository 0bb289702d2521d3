package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantuminvestor/ledger"
	"github.com/quantuminvestor/ledger/date"
)

// Finnhub is the secondary quote provider. Stocks use the plain symbol,
// crypto is mapped to the Binance USDT pair. Index symbols are not
// served on the free tier.
type Finnhub struct {
	key    string
	base   string
	client *http.Client
	pace   *pacer
	log    zerolog.Logger
}

func NewFinnhub(cfg ProviderConfig, client *http.Client, log zerolog.Logger) *Finnhub {
	return &Finnhub{
		key:    cfg.Key,
		base:   cfg.BaseURL,
		client: client,
		pace:   newPacer(cfg.MinInterval.Std()),
		log:    log.With().Str("provider", "finnhub").Logger(),
	}
}

func (f *Finnhub) Name() string { return "finnhub" }

// cryptoPairs maps ledger crypto symbols to Finnhub exchange pairs.
var cryptoPairs = map[string]string{
	"BTC": "BINANCE:BTCUSDT",
	"ETH": "BINANCE:ETHUSDT",
}

func (f *Finnhub) Quote(ctx context.Context, req Request) (ledger.Quote, error) {
	if req.Kind == Index {
		return ledger.Quote{}, fmt.Errorf("%w: index symbols are not served", ErrNoData)
	}
	if f.key == "" {
		return ledger.Quote{}, fmt.Errorf("no API key in $%s", EnvFinnhubKey)
	}
	symbol := req.Symbol
	if req.Kind == Crypto {
		pair, ok := cryptoPairs[symbol]
		if !ok {
			return ledger.Quote{}, fmt.Errorf("%w: no exchange pair for %s", ErrNoData, symbol)
		}
		symbol = pair
	}
	if err := f.pace.wait(ctx); err != nil {
		return ledger.Quote{}, err
	}

	// https://finnhub.io/api/v1/quote?symbol=IONQ
	// {"c": 41.25, "h": 42.1, "l": 40.2, "o": 40.9, "pc": 40.11, "t": 1751932800}
	// An unknown symbol answers 200 with every field at zero.
	addr := fmt.Sprintf("%s/api/v1/quote?symbol=%s&token=%s", f.base, url.QueryEscape(symbol), f.key)
	var payload struct {
		Current   float64 `json:"c"`
		Timestamp int64   `json:"t"`
	}
	if err := getJSON(ctx, f.client, addr, &payload); err != nil {
		return ledger.Quote{}, err
	}
	if payload.Current <= 0 {
		return ledger.Quote{}, fmt.Errorf("%w: empty quote for %s", ErrNoData, symbol)
	}
	on := req.AsOf.LastWeekday()
	if payload.Timestamp > 0 {
		t := time.Unix(payload.Timestamp, 0).UTC()
		on = date.New(t.Date())
	}
	f.log.Debug().Str("symbol", req.Symbol).Float64("close", payload.Current).Stringer("on", on).Msg("quoted")
	return ledger.Quote{Symbol: req.Symbol, On: on, Close: payload.Current, Source: f.Name()}, nil
}
