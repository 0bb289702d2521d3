package ledger

import (
	"testing"

	"github.com/quantuminvestor/ledger/date"
)

func day(s string) date.Date { return date.MustParse(s) }

// testMaster returns a record at inception (2025-07-01, $1000) holding
// ten shares of AAA bought at $100, with benchmark references 6200 (spx)
// and 108000 (btc).
func testMaster(t *testing.T) *Master {
	t.Helper()
	m, err := NewMaster("Test Portfolio", day("2025-07-01"), 1000, 6200, 108000)
	if err != nil {
		t.Fatal(err)
	}
	buy := Trade{On: day("2025-07-01"), Ticker: "AAA", Name: "Alpha Avionics", Action: Buy, Shares: 10, Price: 100}
	if err := m.ApplyTrades([]Trade{buy}, Constraints{}); err != nil {
		t.Fatal(err)
	}
	return m
}
