package ledger

import (
	"fmt"
	"sort"

	"github.com/quantuminvestor/ledger/date"
)

// Quote is a validated closing price for one symbol, as returned by a
// market data provider. On is the trading day the close belongs to,
// which may precede the evaluation date on market holidays.
type Quote struct {
	Symbol string
	On     date.Date
	Close  float64
	Source string
}

// RequiredQuotes returns the quote keys Advance needs for the next
// cycle: every open position ticker, then the benchmark names.
func (m *Master) RequiredQuotes() []string {
	keys := m.Tickers()
	return append(keys, BenchSP500, BenchBitcoin)
}

// Advance runs one evaluation cycle: it validates the quote set in full,
// then appends one point to every stock price series, the portfolio
// history, both benchmark histories and the normalized chart. Nothing is
// mutated until everything needed for the cycle is known to be present,
// so a failed cycle leaves the record untouched.
//
// Quotes are keyed by position ticker and benchmark name. Advancing to a
// date already recorded fails with ErrDuplicateDate.
func (m *Master) Advance(on date.Date, quotes map[string]Quote) error {
	if err := m.Check(); err != nil {
		return err
	}
	if on == m.Meta.CurrentDate {
		return fmt.Errorf("%w: %s", ErrDuplicateDate, on)
	}
	if on.Before(m.Meta.CurrentDate) {
		return fmt.Errorf("evaluation date %s precedes current date %s", on, m.Meta.CurrentDate)
	}
	if len(m.Stocks) == 0 {
		return fmt.Errorf("no open positions to evaluate")
	}
	var missing []string
	for _, key := range m.RequiredQuotes() {
		if q, ok := quotes[key]; !ok || q.Close <= 0 {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing quotes for %v, cycle aborted", missing)
	}

	prev := m.Meta.CurrentDate

	// Gather phase: compute every update before mutating anything.
	type stockUpdate struct {
		p      *Position
		close  float64
		seeded bool // close already recorded for this date (same-day entry)
		value  float64
		weekly float64
		total  float64
	}
	updates := make([]stockUpdate, 0, len(m.Stocks))
	var totalValue float64
	for _, p := range m.Stocks {
		u := stockUpdate{p: p, close: Round2(quotes[p.Ticker].Close)}
		if _, ok := p.Prices.Get(on); ok {
			u.seeded = true
		}
		if _, prior, ok := p.Prices.ValueAsOf(prev, MaxCloseWalkBack); ok {
			u.weekly, _ = WeeklyPct(u.close, prior)
		}
		entry, ok := p.Prices.Get(p.EntryDate)
		if !ok {
			_, entry = p.Prices.First()
		}
		u.total = TotalPct(u.close, entry)
		u.value = RoundUnit(p.Value(u.close))
		totalValue += u.value
		updates = append(updates, u)
	}

	type benchUpdate struct {
		b      *Benchmark
		close  float64
		weekly float64
		total  float64
	}
	bench := make(map[string]benchUpdate, 2)
	for _, name := range []string{BenchSP500, BenchBitcoin} {
		b := m.Benchmarks[name]
		u := benchUpdate{b: b, close: Round2(quotes[name].Close)}
		if last := b.Latest(); last != nil {
			u.weekly, _ = WeeklyPct(u.close, last.Close)
		}
		u.total = TotalPct(u.close, b.InceptionReference)
		bench[name] = u
	}

	prevValue := m.History[len(m.History)-1].Value
	weekly, _ := WeeklyPct(totalValue, prevValue)
	total := TotalPct(totalValue, m.Meta.InceptionValue)

	// Commit phase.
	for _, u := range updates {
		if !u.seeded {
			if err := u.p.Prices.Append(on, u.close); err != nil {
				return fmt.Errorf("recording close for %s: %w", u.p.Ticker, err)
			}
		}
		u.p.CurrentValue = u.value
		u.p.WeeklyPct = Round2(u.weekly)
		u.p.TotalPct = Round2(u.total)
	}
	for _, name := range []string{BenchSP500, BenchBitcoin} {
		u := bench[name]
		u.b.History = append(u.b.History, BenchPoint{
			On:        on,
			Close:     u.close,
			WeeklyPct: Round2(u.weekly),
			TotalPct:  Round2(u.total),
		})
	}
	m.History = append(m.History, PortfolioPoint{
		On:        on,
		Value:     totalValue,
		WeeklyPct: Round2(weekly),
		TotalPct:  Round2(total),
	})
	m.NormalizedChart = append(m.NormalizedChart, NormalizedPoint{
		On:             on,
		PortfolioValue: totalValue,
		PortfolioNorm:  Round2(Normalize(totalValue, m.Meta.InceptionValue)),
		SPXClose:       bench[BenchSP500].close,
		BTCClose:       bench[BenchBitcoin].close,
		SPXNorm:        Round2(Normalize(bench[BenchSP500].close, m.Benchmarks[BenchSP500].InceptionReference)),
		BTCNorm:        Round2(Normalize(bench[BenchBitcoin].close, m.Benchmarks[BenchBitcoin].InceptionReference)),
	})
	m.PortfolioTotals = Totals{
		CurrentValue: totalValue,
		WeeklyPct:    Round2(weekly),
		TotalPct:     Round2(total),
	}
	m.Meta.CurrentDate = on

	return m.Check()
}
