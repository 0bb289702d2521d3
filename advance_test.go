package ledger

import (
	"errors"
	"testing"
)

// weekOne is a full quote set for the cycle after testMaster's inception.
func weekOne() map[string]Quote {
	return map[string]Quote{
		"AAA":        {Symbol: "AAA", On: day("2025-07-08"), Close: 110, Source: "alphavantage"},
		BenchSP500:   {Symbol: "^SPX", On: day("2025-07-08"), Close: 6324, Source: "marketstack"},
		BenchBitcoin: {Symbol: "BTC", On: day("2025-07-08"), Close: 113400, Source: "finnhub"},
	}
}

func TestAdvance(t *testing.T) {
	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}

	if m.Weeks() != 1 {
		t.Errorf("Weeks() = %d, want 1", m.Weeks())
	}
	if m.Meta.CurrentDate != day("2025-07-08") {
		t.Errorf("current_date = %s, want 2025-07-08", m.Meta.CurrentDate)
	}

	p := m.Position("AAA")
	if p.CurrentValue != 1100 {
		t.Errorf("AAA current_value = %v, want 1100", p.CurrentValue)
	}
	if p.WeeklyPct != 10 || p.TotalPct != 10 {
		t.Errorf("AAA pct = %v weekly, %v total; want 10, 10", p.WeeklyPct, p.TotalPct)
	}
	if _, close, ok := p.Prices.ValueAsOf(day("2025-07-08"), 0); !ok || close != 110 {
		t.Errorf("AAA close = %v, %v; want 110 recorded", close, ok)
	}

	// Position totals roll up. AAA is the only holding, so the
	// portfolio gains exactly its 10%.
	if m.PortfolioTotals.CurrentValue != 1100 {
		t.Errorf("totals value = %v, want 1100", m.PortfolioTotals.CurrentValue)
	}
	if m.PortfolioTotals.WeeklyPct != 10 || m.PortfolioTotals.TotalPct != 10 {
		t.Errorf("totals pct = %+v, want 10/10", m.PortfolioTotals)
	}

	// 6324/6200 and 113400/108000 are exactly +2% and +5%.
	spx := m.Benchmarks[BenchSP500].Latest()
	if spx.Close != 6324 || spx.WeeklyPct != 2 || spx.TotalPct != 2 {
		t.Errorf("spx point = %+v, want close 6324, 2/2", spx)
	}
	btc := m.Benchmarks[BenchBitcoin].Latest()
	if btc.Close != 113400 || btc.WeeklyPct != 5 || btc.TotalPct != 5 {
		t.Errorf("btc point = %+v, want close 113400, 5/5", btc)
	}

	n := m.NormalizedChart[len(m.NormalizedChart)-1]
	if n.PortfolioNorm != 110 || n.SPXNorm != 102 || n.BTCNorm != 105 {
		t.Errorf("normalized = %+v, want 110/102/105", n)
	}

	if err := m.Check(); err != nil {
		t.Errorf("record invalid after advance: %v", err)
	}
}

func TestAdvanceNeverRewritesHistory(t *testing.T) {
	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}
	before := append([]PortfolioPoint(nil), m.History...)
	spxBefore := append([]BenchPoint(nil), m.Benchmarks[BenchSP500].History...)

	quotes := map[string]Quote{
		"AAA":        {Symbol: "AAA", Close: 95},
		BenchSP500:   {Symbol: "^SPX", Close: 6100},
		BenchBitcoin: {Symbol: "BTC", Close: 99000},
	}
	if err := m.Advance(day("2025-07-15"), quotes); err != nil {
		t.Fatal(err)
	}
	for i, p := range before {
		if m.History[i] != p {
			t.Errorf("history[%d] rewritten: %+v -> %+v", i, p, m.History[i])
		}
	}
	for i, p := range spxBefore {
		if m.Benchmarks[BenchSP500].History[i] != p {
			t.Errorf("spx history[%d] rewritten", i)
		}
	}
}

func TestAdvanceDuplicateDate(t *testing.T) {
	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}
	err := m.Advance(day("2025-07-08"), weekOne())
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("error = %v, want ErrDuplicateDate", err)
	}
	if m.Weeks() != 1 {
		t.Errorf("duplicate cycle mutated the record: weeks = %d", m.Weeks())
	}
}

func TestAdvanceRejectsEarlierDate(t *testing.T) {
	m := testMaster(t)
	if err := m.Advance(day("2025-06-30"), weekOne()); err == nil {
		t.Fatal("expected error advancing before current date")
	}
}

func TestAdvanceMissingQuoteAbortsCycle(t *testing.T) {
	m := testMaster(t)
	quotes := weekOne()
	delete(quotes, BenchBitcoin)
	if err := m.Advance(day("2025-07-08"), quotes); err == nil {
		t.Fatal("expected error for missing benchmark quote")
	}
	// Nothing was appended anywhere.
	if m.Weeks() != 0 {
		t.Errorf("weeks = %d, want 0", m.Weeks())
	}
	if m.Position("AAA").Prices.Len() != 1 {
		t.Error("failed cycle appended a price")
	}
	if len(m.Benchmarks[BenchSP500].History) != 1 {
		t.Error("failed cycle appended a benchmark point")
	}
}

func TestAdvanceHolidayPriorClose(t *testing.T) {
	// Advance twice; the second cycle computes its weekly change
	// against the close recorded on the previous current_date.
	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}
	quotes := map[string]Quote{
		"AAA":        {Symbol: "AAA", Close: 121},
		BenchSP500:   {Symbol: "^SPX", Close: 6324},
		BenchBitcoin: {Symbol: "BTC", Close: 113400},
	}
	if err := m.Advance(day("2025-07-15"), quotes); err != nil {
		t.Fatal(err)
	}
	p := m.Position("AAA")
	if p.WeeklyPct != 10 {
		t.Errorf("AAA weekly = %v, want 10 (121 vs prior close 110)", p.WeeklyPct)
	}
	if p.TotalPct != 21 {
		t.Errorf("AAA total = %v, want 21 (121 vs entry close 100)", p.TotalPct)
	}
}
