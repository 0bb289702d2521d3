package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/quantuminvestor/ledger"
)

type rebalanceCmd struct {
	trades   string
	dryRun   bool
	noLimits bool
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "apply a batch of trade instructions" }
func (*rebalanceCmd) Usage() string {
	return `rebalance -trades <trades.json> [-dry-run] [-no-limits]

  Applies a JSON array of trade instructions to the record. The batch is
  transactional: one invalid trade, or a portfolio-rule violation after
  the batch, rejects the whole file and writes nothing.

  [{"ticker": "IONQ", "action": "SELL", "shares": 50, "price": 41.25,
    "reason": "taking profit"},
   {"ticker": "RKLB", "name": "Rocket Lab", "action": "BUY",
    "shares": 60, "price": 36.71}]
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.trades, "trades", "", "path to the trade instruction file")
	f.BoolVar(&c.dryRun, "dry-run", false, "validate and report, do not save")
	f.BoolVar(&c.noLimits, "no-limits", false, "skip the portfolio shape rules (position count, weight cap, value floor)")
}

func (c *rebalanceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.trades == "" {
		fmt.Fprintln(os.Stderr, "-trades is required")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(c.trades)
	if err != nil {
		return fail(err)
	}
	var trades []ledger.Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		return fail(fmt.Errorf("parsing %s: %w", c.trades, err))
	}

	store := openStore()
	m, err := store.Load()
	if err != nil {
		return fail(err)
	}

	constraints := ledger.DefaultConstraints
	if c.noLimits {
		constraints = ledger.Constraints{}
	}
	if err := m.ApplyTrades(trades, constraints); err != nil {
		return fail(err)
	}

	for _, t := range trades {
		fmt.Printf("%s %v %s @ %s\n", t.Action, t.Shares, t.Ticker, usd(t.Price))
	}
	if c.dryRun {
		fmt.Printf("Dry run: %d trades valid, %d positions after batch, nothing saved\n",
			len(trades), len(m.Stocks))
		return subcommands.ExitSuccess
	}
	if err := store.Save(m); err != nil {
		return fail(err)
	}
	fmt.Printf("Applied %d trades, %d open positions\n", len(trades), len(m.Stocks))
	return subcommands.ExitSuccess
}
