package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/quantuminvestor/ledger"
	"github.com/quantuminvestor/ledger/date"
)

// AlphaVantage is the primary quote provider. Stocks go through
// GLOBAL_QUOTE, crypto through CURRENCY_EXCHANGE_RATE against USD. The
// free tier does not serve index symbols.
type AlphaVantage struct {
	key    string
	base   string
	client *http.Client
	pace   *pacer
	log    zerolog.Logger
}

func NewAlphaVantage(cfg ProviderConfig, client *http.Client, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{
		key:    cfg.Key,
		base:   cfg.BaseURL,
		client: client,
		pace:   newPacer(cfg.MinInterval.Std()),
		log:    log.With().Str("provider", "alphavantage").Logger(),
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) Quote(ctx context.Context, req Request) (ledger.Quote, error) {
	if req.Kind == Index {
		return ledger.Quote{}, fmt.Errorf("%w: index symbols are not served", ErrNoData)
	}
	if a.key == "" {
		return ledger.Quote{}, fmt.Errorf("no API key in $%s", EnvAlphaVantageKey)
	}
	if err := a.pace.wait(ctx); err != nil {
		return ledger.Quote{}, err
	}
	if req.Kind == Crypto {
		return a.exchangeRate(ctx, req)
	}
	return a.globalQuote(ctx, req)
}

// globalQuote fetches a stock close.
//
//	{"Global Quote": {
//	    "01. symbol": "IONQ",
//	    "05. price": "41.2500",
//	    "07. latest trading day": "2025-07-08", ... }}
//
// A throttled key gets a 200 with a "Note" (or "Information") field
// instead of a quote.
func (a *AlphaVantage) globalQuote(ctx context.Context, req Request) (ledger.Quote, error) {
	addr := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		a.base, url.QueryEscape(req.Symbol), a.key)
	var payload struct {
		Note        string `json:"Note"`
		Information string `json:"Information"`
		Quote       struct {
			Price string `json:"05. price"`
			Day   string `json:"07. latest trading day"`
		} `json:"Global Quote"`
	}
	if err := getJSON(ctx, a.client, addr, &payload); err != nil {
		return ledger.Quote{}, err
	}
	if payload.Note != "" || payload.Information != "" {
		return ledger.Quote{}, transient("rate limited: %s%s", payload.Note, payload.Information)
	}
	if payload.Quote.Price == "" {
		return ledger.Quote{}, fmt.Errorf("%w: empty quote for %s", ErrNoData, req.Symbol)
	}
	close, err := strconv.ParseFloat(payload.Quote.Price, 64)
	if err != nil || close <= 0 {
		return ledger.Quote{}, fmt.Errorf("unreadable price %q for %s", payload.Quote.Price, req.Symbol)
	}
	on := tradingDay(payload.Quote.Day, req.AsOf)
	a.log.Debug().Str("symbol", req.Symbol).Float64("close", close).Stringer("on", on).Msg("quoted")
	return ledger.Quote{Symbol: req.Symbol, On: on, Close: close, Source: a.Name()}, nil
}

// exchangeRate fetches a crypto close as the realtime rate against USD.
//
//	{"Realtime Currency Exchange Rate": {
//	    "5. Exchange Rate": "108213.45000000",
//	    "6. Last Refreshed": "2025-07-08 00:00:01", ... }}
func (a *AlphaVantage) exchangeRate(ctx context.Context, req Request) (ledger.Quote, error) {
	addr := fmt.Sprintf("%s/query?function=CURRENCY_EXCHANGE_RATE&from_currency=%s&to_currency=USD&apikey=%s",
		a.base, url.QueryEscape(req.Symbol), a.key)
	var jobj map[string]any
	if err := getJSON(ctx, a.client, addr, &jobj); err != nil {
		return ledger.Quote{}, err
	}
	if note, ok := jobj["Note"].(string); ok && note != "" {
		return ledger.Quote{}, transient("rate limited: %s", note)
	}
	jval, err := jsonpath.Get(`$["Realtime Currency Exchange Rate"]["5. Exchange Rate"]`, jobj)
	if err != nil {
		return ledger.Quote{}, fmt.Errorf("%w: no exchange rate for %s", ErrNoData, req.Symbol)
	}
	str, ok := jval.(string)
	if !ok {
		return ledger.Quote{}, fmt.Errorf("unreadable exchange rate %v for %s", jval, req.Symbol)
	}
	close, err := strconv.ParseFloat(str, 64)
	if err != nil || close <= 0 {
		return ledger.Quote{}, fmt.Errorf("unreadable exchange rate %q for %s", str, req.Symbol)
	}
	on := req.AsOf.LastWeekday()
	if jday, err := jsonpath.Get(`$["Realtime Currency Exchange Rate"]["6. Last Refreshed"]`, jobj); err == nil {
		if s, ok := jday.(string); ok && len(s) >= len(date.Format) {
			on = tradingDay(s[:len(date.Format)], req.AsOf)
		}
	}
	a.log.Debug().Str("symbol", req.Symbol).Float64("close", close).Stringer("on", on).Msg("quoted")
	return ledger.Quote{Symbol: req.Symbol, On: on, Close: close, Source: a.Name()}, nil
}

// tradingDay parses the provider's trading day, falling back to the last
// weekday before the evaluation date when it is absent or malformed.
func tradingDay(s string, asOf date.Date) date.Date {
	if on, err := date.Parse(s); err == nil {
		return on
	}
	return asOf.LastWeekday()
}
