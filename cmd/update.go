package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/quantuminvestor/ledger"
	"github.com/quantuminvestor/ledger/date"
	"github.com/quantuminvestor/ledger/marketdata"
)

type updateCmd struct {
	on string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "run one weekly evaluation cycle" }
func (*updateCmd) Usage() string {
	return `update [-d <date>]

  Fetches a close for every open position and both benchmarks, computes
  the weekly and total returns, appends the new evaluation date to the
  record and saves it. The date defaults to the latest weekday; running
  twice on the same date is an error and changes nothing.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.on, "d", date.Today().LastWeekday().String(), "evaluation date (YYYY-MM-DD)")
}

// benchRequest maps a benchmark name to its provider request.
func benchRequest(name string) marketdata.Request {
	switch name {
	case ledger.BenchSP500:
		return marketdata.Request{Symbol: "^SPX", Kind: marketdata.Index}
	case ledger.BenchBitcoin:
		return marketdata.Request{Symbol: "BTC", Kind: marketdata.Crypto}
	default:
		return marketdata.Request{Symbol: name, Kind: marketdata.Stock}
	}
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.on)
	if err != nil {
		return fail(err)
	}
	on = on.LastWeekday()

	store := openStore()
	m, err := store.Load()
	if err != nil {
		return fail(err)
	}
	fetcher, err := newFetcher()
	if err != nil {
		return fail(err)
	}

	// Gather every quote before touching the record: a single
	// unavailable symbol aborts the whole cycle.
	quotes := make(map[string]ledger.Quote)
	for _, ticker := range m.Tickers() {
		q, err := fetcher.Fetch(ctx, marketdata.Request{Symbol: ticker, Kind: marketdata.Stock, AsOf: on})
		if err != nil {
			return fail(err)
		}
		quotes[ticker] = q
	}
	for _, name := range []string{ledger.BenchSP500, ledger.BenchBitcoin} {
		req := benchRequest(name)
		req.AsOf = on
		q, err := fetcher.Fetch(ctx, req)
		if err != nil {
			return fail(err)
		}
		quotes[name] = q
	}

	if err := m.Advance(on, quotes); err != nil {
		return fail(err)
	}
	if err := store.Save(m); err != nil {
		return fail(err)
	}

	t := m.PortfolioTotals
	fmt.Printf("Week %d recorded at %s: %s (%+.2f%% weekly, %+.2f%% since inception)\n",
		m.Weeks(), on, usd(t.CurrentValue), t.WeeklyPct, t.TotalPct)
	return subcommands.ExitSuccess
}
