package marketdata

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/quantuminvestor/ledger"
)

// Fetcher runs the provider fallback chain. Stocks try Alpha Vantage,
// then Finnhub, then Marketstack; crypto stops at Finnhub; index symbols
// go straight to Marketstack. Transient failures are retried with
// exponential backoff within a per-provider budget, definitive failures
// advance the chain immediately. A circuit breaker per provider skips
// services that keep failing, so one dead provider cannot stall a whole
// cycle at full backoff on every symbol.
type Fetcher struct {
	chains   map[Kind][]Provider
	breakers map[string]*gobreaker.CircuitBreaker
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      zerolog.Logger
}

// New builds the production fetcher from the configuration.
func New(cfg Config, log zerolog.Logger) *Fetcher {
	client := &http.Client{Timeout: cfg.Timeout.Std()}
	av := NewAlphaVantage(cfg.AlphaVantage, client, log)
	fh := NewFinnhub(cfg.Finnhub, client, log)
	ms := NewMarketstack(cfg.Marketstack, client, log)
	return newFetcher(cfg, log, map[Kind][]Provider{
		Stock:  {av, fh, ms},
		Crypto: {av, fh},
		Index:  {ms},
	})
}

func newFetcher(cfg Config, log zerolog.Logger, chains map[Kind][]Provider) *Fetcher {
	f := &Fetcher{
		chains:   chains,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff.Std(),
		sleep:    sleep,
		log:      log,
	}
	for _, chain := range chains {
		for _, p := range chain {
			if _, ok := f.breakers[p.Name()]; ok {
				continue
			}
			f.breakers[p.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    p.Name(),
				Timeout: 2 * time.Minute,
				ReadyToTrip: func(c gobreaker.Counts) bool {
					return c.ConsecutiveFailures >= 3
				},
				// A definitive no-data answer is a healthy provider.
				IsSuccessful: func(err error) bool {
					return err == nil || errors.Is(err, ErrNoData)
				},
			})
		}
	}
	return f
}

// Fetch returns the closing quote for one symbol, trying each provider
// of the symbol's chain in order. When the whole chain is exhausted it
// returns a QuoteUnavailableError naming every attempt.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (ledger.Quote, error) {
	var attempts []Attempt
	for _, p := range f.chains[req.Kind] {
		q, err := f.fetchFrom(ctx, p, req)
		if err == nil {
			f.log.Info().Str("symbol", req.Symbol).Str("provider", p.Name()).
				Float64("close", q.Close).Stringer("on", q.On).Msg("quote")
			return q, nil
		}
		if ctx.Err() != nil {
			return ledger.Quote{}, ctx.Err()
		}
		f.log.Warn().Str("symbol", req.Symbol).Str("provider", p.Name()).Err(err).Msg("provider failed")
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
	}
	return ledger.Quote{}, &QuoteUnavailableError{Symbol: req.Symbol, Attempts: attempts}
}

// fetchFrom calls one provider through its breaker, retrying transient
// failures with exponential backoff.
func (f *Fetcher) fetchFrom(ctx context.Context, p Provider, req Request) (ledger.Quote, error) {
	cb := f.breakers[p.Name()]
	for attempt := 1; ; attempt++ {
		res, err := cb.Execute(func() (any, error) {
			return p.Quote(ctx, req)
		})
		if err == nil {
			return res.(ledger.Quote), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ledger.Quote{}, err
		}
		if !IsTransient(err) {
			return ledger.Quote{}, err
		}
		if attempt >= f.attempts {
			return ledger.Quote{}, err
		}
		delay := f.backoff << (attempt - 1)
		f.log.Debug().Str("symbol", req.Symbol).Str("provider", p.Name()).
			Dur("delay", delay).Int("attempt", attempt).Msg("retrying")
		if err := f.sleep(ctx, delay); err != nil {
			return ledger.Quote{}, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
