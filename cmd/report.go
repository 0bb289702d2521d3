package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/quantuminvestor/ledger"
)

type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render the latest snapshot" }
func (*reportCmd) Usage() string {
	return `report

  Renders the current state of the record: totals, open positions,
  benchmarks and closed positions.
`
}

func (*reportCmd) SetFlags(*flag.FlagSet) {}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := loadMaster()
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderReport(m))
	return subcommands.ExitSuccess
}

func renderReport(m *ledger.Master) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — week %d (%s)\n\n", m.Meta.PortfolioName, m.Weeks(), m.Meta.CurrentDate)
	t := m.PortfolioTotals
	fmt.Fprintf(&b, "**%s** (%+.2f%% weekly, %+.2f%% since inception on %s)\n\n",
		usd(t.CurrentValue), t.WeeklyPct, t.TotalPct, m.Meta.InceptionDate)

	fmt.Fprintf(&b, "## Open positions\n\n")
	fmt.Fprintf(&b, "| Ticker | Name | Shares | Cost basis | Value | Weekly | Total |\n")
	fmt.Fprintf(&b, "|---|---|---:|---:|---:|---:|---:|\n")
	for _, p := range m.Stocks {
		fmt.Fprintf(&b, "| %s | %s | %v | %s | %s | %+.2f%% | %+.2f%% |\n",
			p.Ticker, p.Name, p.Shares, usd(p.CostBasis), usd(p.CurrentValue), p.WeeklyPct, p.TotalPct)
	}

	fmt.Fprintf(&b, "\n## Benchmarks\n\n")
	fmt.Fprintf(&b, "| Benchmark | Close | Weekly | Total |\n")
	fmt.Fprintf(&b, "|---|---:|---:|---:|\n")
	for _, name := range m.BenchmarkNames() {
		if last := m.Benchmarks[name].Latest(); last != nil {
			fmt.Fprintf(&b, "| %s | %.2f | %+.2f%% | %+.2f%% |\n", name, last.Close, last.WeeklyPct, last.TotalPct)
		}
	}

	if len(m.ClosedPositions) > 0 {
		fmt.Fprintf(&b, "\n## Closed positions\n\n")
		fmt.Fprintf(&b, "| Ticker | Entry | Exit | Exit price | Realized P/L |\n")
		fmt.Fprintf(&b, "|---|---|---|---:|---:|\n")
		for _, p := range m.ClosedPositions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				p.Ticker, p.EntryDate, p.ExitDate, usd(p.ExitPrice), usd(p.RealizedPL))
		}
	}
	return b.String()
}
