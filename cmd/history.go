package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/quantuminvestor/ledger"
)

type historyCmd struct {
	normalized bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the week-by-week history" }
func (*historyCmd) Usage() string {
	return `history [-n]

  Prints one line per evaluation date: portfolio value and both
  benchmark closes. With -n the three series are printed rebased to
  100 at inception instead.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.normalized, "n", false, "print the normalized (base-100) series")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := loadMaster()
	if err != nil {
		return fail(err)
	}
	if c.normalized {
		fmt.Printf("Date\t\tPortfolio\tS&P 500\tBitcoin\n")
		for _, n := range m.NormalizedChart {
			fmt.Printf("%s\t%.2f\t%.2f\t%.2f\n", n.On, n.PortfolioNorm, n.SPXNorm, n.BTCNorm)
		}
		return subcommands.ExitSuccess
	}
	fmt.Printf("Date\t\tValue\tWeekly\tTotal\tS&P 500\tBitcoin\n")
	spx := m.Benchmarks[ledger.BenchSP500].History
	btc := m.Benchmarks[ledger.BenchBitcoin].History
	for i, p := range m.History {
		fmt.Printf("%s\t%.0f\t%+.2f%%\t%+.2f%%\t%.2f\t%.2f\n",
			p.On, p.Value, p.WeeklyPct, p.TotalPct, spx[i].Close, btc[i].Close)
	}
	return subcommands.ExitSuccess
}
