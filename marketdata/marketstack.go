package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/quantuminvestor/ledger"
)

// Marketstack is the tertiary quote provider and the only one serving
// index symbols such as ^SPX.
type Marketstack struct {
	key    string
	base   string
	client *http.Client
	pace   *pacer
	log    zerolog.Logger
}

func NewMarketstack(cfg ProviderConfig, client *http.Client, log zerolog.Logger) *Marketstack {
	return &Marketstack{
		key:    cfg.Key,
		base:   cfg.BaseURL,
		client: client,
		pace:   newPacer(cfg.MinInterval.Std()),
		log:    log.With().Str("provider", "marketstack").Logger(),
	}
}

func (m *Marketstack) Name() string { return "marketstack" }

func (m *Marketstack) Quote(ctx context.Context, req Request) (ledger.Quote, error) {
	if req.Kind == Crypto {
		return ledger.Quote{}, fmt.Errorf("%w: crypto symbols are not served", ErrNoData)
	}
	if m.key == "" {
		return ledger.Quote{}, fmt.Errorf("no API key in $%s", EnvMarketstackKey)
	}
	if err := m.pace.wait(ctx); err != nil {
		return ledger.Quote{}, err
	}

	// https://api.marketstack.com/v1/eod/latest?symbols=^SPX
	// {"data": [{"symbol": "^SPX", "close": 6324.5, "date": "2025-07-08T00:00:00+0000", ...}]}
	// Plan errors come back as 200 with an "error" object.
	addr := fmt.Sprintf("%s/v1/eod/latest?access_key=%s&symbols=%s", m.base, m.key, url.QueryEscape(req.Symbol))
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data []struct {
			Close float64 `json:"close"`
			Date  string  `json:"date"`
		} `json:"data"`
	}
	if err := getJSON(ctx, m.client, addr, &payload); err != nil {
		return ledger.Quote{}, err
	}
	if payload.Error.Code != "" {
		if payload.Error.Code == "rate_limit_reached" {
			return ledger.Quote{}, transient("rate limited: %s", payload.Error.Message)
		}
		return ledger.Quote{}, fmt.Errorf("%w: %s %s", ErrNoData, payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Data) == 0 || payload.Data[0].Close <= 0 {
		return ledger.Quote{}, fmt.Errorf("%w: empty eod data for %s", ErrNoData, req.Symbol)
	}
	eod := payload.Data[0]
	day := eod.Date
	if len(day) > 10 {
		day = day[:10] // trim the T00:00:00+0000 tail
	}
	on := tradingDay(day, req.AsOf)
	m.log.Debug().Str("symbol", req.Symbol).Float64("close", eod.Close).Stringer("on", on).Msg("quoted")
	return ledger.Quote{Symbol: req.Symbol, On: on, Close: eod.Close, Source: m.Name()}, nil
}
