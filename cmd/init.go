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

type initCmd struct {
	name  string
	on    string
	value float64
	spx   float64
	btc   float64
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a master record at inception" }
func (*initCmd) Usage() string {
	return `init -name <portfolio> [-d <date>] [-value <amount>]

  Creates a new master record. The benchmark closes on the inception
  date become the inception references; pass them with -spx and -btc,
  or leave them at zero to fetch them from the providers.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "portfolio name")
	f.StringVar(&c.on, "d", date.Today().LastWeekday().String(), "inception date (YYYY-MM-DD)")
	f.Float64Var(&c.value, "value", 10000, "inception value in USD")
	f.Float64Var(&c.spx, "spx", 0, "S&P 500 close on the inception date (0 to fetch)")
	f.Float64Var(&c.btc, "btc", 0, "Bitcoin close on the inception date (0 to fetch)")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.on)
	if err != nil {
		return fail(err)
	}
	if _, err := openStore().Load(); err == nil {
		return fail(fmt.Errorf("a master record already exists at %s", *masterFile))
	}

	spx, btc := c.spx, c.btc
	if spx == 0 || btc == 0 {
		fetcher, err := newFetcher()
		if err != nil {
			return fail(err)
		}
		if spx == 0 {
			q, err := fetcher.Fetch(ctx, marketdata.Request{Symbol: "^SPX", Kind: marketdata.Index, AsOf: on})
			if err != nil {
				return fail(err)
			}
			spx = q.Close
		}
		if btc == 0 {
			q, err := fetcher.Fetch(ctx, marketdata.Request{Symbol: "BTC", Kind: marketdata.Crypto, AsOf: on})
			if err != nil {
				return fail(err)
			}
			btc = q.Close
		}
	}

	m, err := ledger.NewMaster(c.name, on, c.value, spx, btc)
	if err != nil {
		return fail(err)
	}
	if err := openStore().Save(m); err != nil {
		return fail(err)
	}
	fmt.Printf("Created %s: %q at %s, %s (spx %.2f, btc %.2f)\n",
		*masterFile, c.name, on, usd(c.value), spx, btc)
	return subcommands.ExitSuccess
}
