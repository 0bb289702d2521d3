package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/quantuminvestor/ledger/date"
)

// SchemaVersion is the version of the master record layout this package
// reads and writes.
const SchemaVersion = 1

// Benchmark names tracked by every master record.
const (
	BenchSP500   = "sp500"
	BenchBitcoin = "bitcoin"
)

// ErrDuplicateDate is returned when a cycle would record an evaluation
// date that the record already contains.
var ErrDuplicateDate = errors.New("evaluation date already recorded")

// Meta identifies the portfolio and its inception terms.
type Meta struct {
	PortfolioName  string    `json:"portfolio_name"`
	InceptionDate  date.Date `json:"inception_date"`
	InceptionValue float64   `json:"inception_value"`
	CurrentDate    date.Date `json:"current_date"`
}

// Position is an open holding. Prices is append-only: one close per
// evaluation date, never rewritten.
type Position struct {
	Ticker       string      `json:"ticker"`
	Name         string      `json:"name"`
	Shares       float64     `json:"shares"`
	CostBasis    float64     `json:"cost_basis"`
	EntryDate    date.Date   `json:"entry_date"`
	Prices       date.Series `json:"prices"`
	CurrentValue float64     `json:"current_value"`
	WeeklyPct    float64     `json:"weekly_pct"`
	TotalPct     float64     `json:"total_pct"`
}

// Value returns the position value at the given price.
func (p *Position) Value(price float64) float64 { return p.Shares * price }

// ClosedPosition archives a holding whose shares reached zero. Its price
// history is retained verbatim.
type ClosedPosition struct {
	Ticker     string      `json:"ticker"`
	Name       string      `json:"name"`
	Shares     float64     `json:"shares"`
	CostBasis  float64     `json:"cost_basis"`
	EntryDate  date.Date   `json:"entry_date"`
	ExitDate   date.Date   `json:"exit_date"`
	ExitPrice  float64     `json:"exit_price"`
	RealizedPL float64     `json:"realized_pl"`
	Prices     date.Series `json:"prices"`
}

// Totals holds portfolio-level value and returns for the latest cycle.
type Totals struct {
	CurrentValue float64 `json:"current_value"`
	WeeklyPct    float64 `json:"weekly_pct"`
	TotalPct     float64 `json:"total_pct"`
}

// BenchPoint is one cycle of a benchmark history.
type BenchPoint struct {
	On        date.Date `json:"date"`
	Close     float64   `json:"close"`
	WeeklyPct float64   `json:"weekly_pct"`
	TotalPct  float64   `json:"total_pct"`
}

// Benchmark tracks an external reference series. InceptionReference is
// the close on the portfolio inception date; total return is always
// computed against it.
type Benchmark struct {
	InceptionReference float64      `json:"inception_reference"`
	History            []BenchPoint `json:"history"`
}

// Latest returns the most recent benchmark point, or nil.
func (b *Benchmark) Latest() *BenchPoint {
	if len(b.History) == 0 {
		return nil
	}
	return &b.History[len(b.History)-1]
}

// PortfolioPoint is one cycle of the portfolio value history.
type PortfolioPoint struct {
	On        date.Date `json:"date"`
	Value     float64   `json:"value"`
	WeeklyPct float64   `json:"weekly_pct"`
	TotalPct  float64   `json:"total_pct"`
}

// NormalizedPoint is one row of the base-100 comparison chart: the
// portfolio and both benchmarks rebased so inception = 100.
type NormalizedPoint struct {
	On             date.Date `json:"date"`
	PortfolioValue float64   `json:"portfolio_value"`
	PortfolioNorm  float64   `json:"portfolio_norm"`
	SPXClose       float64   `json:"spx_close"`
	BTCClose       float64   `json:"btc_close"`
	SPXNorm        float64   `json:"spx_norm"`
	BTCNorm        float64   `json:"btc_norm"`
}

// TradeRecord is one entry of the append-only trade log.
type TradeRecord struct {
	On         date.Date `json:"date"`
	Ticker     string    `json:"ticker"`
	Action     Action    `json:"action"`
	Shares     float64   `json:"shares"`
	Price      float64   `json:"price"`
	Reason     string    `json:"reason,omitempty"`
	RealizedPL float64   `json:"realized_pl,omitempty"`
}

// Master is the root portfolio record, serialized as a single JSON
// document. portfolio_history, every benchmark history and the
// normalized chart are kept in lockstep: same length, same dates.
type Master struct {
	SchemaVersion   int                   `json:"schema_version"`
	Meta            Meta                  `json:"meta"`
	Stocks          []*Position           `json:"stocks"`
	ClosedPositions []*ClosedPosition     `json:"closed_positions,omitempty"`
	PortfolioTotals Totals                `json:"portfolio_totals"`
	Benchmarks      map[string]*Benchmark `json:"benchmarks"`
	History         []PortfolioPoint      `json:"portfolio_history"`
	NormalizedChart []NormalizedPoint     `json:"normalized_chart"`
	TradeLog        []TradeRecord         `json:"trade_log,omitempty"`
}

// NewMaster creates a master record at inception. The benchmark closes
// on the inception date become the inception references, so the
// normalized chart starts every series at exactly 100.
func NewMaster(name string, on date.Date, value, spxClose, btcClose float64) (*Master, error) {
	if name == "" {
		return nil, errors.New("portfolio name is required")
	}
	if on.IsZero() {
		return nil, errors.New("inception date is required")
	}
	if value <= 0 {
		return nil, fmt.Errorf("inception value must be positive, got %v", value)
	}
	if spxClose <= 0 || btcClose <= 0 {
		return nil, fmt.Errorf("benchmark inception closes must be positive, got spx=%v btc=%v", spxClose, btcClose)
	}
	m := &Master{
		SchemaVersion: SchemaVersion,
		Meta: Meta{
			PortfolioName:  name,
			InceptionDate:  on,
			InceptionValue: value,
			CurrentDate:    on,
		},
		Stocks:          []*Position{},
		PortfolioTotals: Totals{CurrentValue: value},
		Benchmarks: map[string]*Benchmark{
			BenchSP500: {
				InceptionReference: spxClose,
				History:            []BenchPoint{{On: on, Close: spxClose}},
			},
			BenchBitcoin: {
				InceptionReference: btcClose,
				History:            []BenchPoint{{On: on, Close: btcClose}},
			},
		},
		History: []PortfolioPoint{{On: on, Value: value}},
		NormalizedChart: []NormalizedPoint{{
			On:             on,
			PortfolioValue: value,
			PortfolioNorm:  100,
			SPXClose:       spxClose,
			BTCClose:       btcClose,
			SPXNorm:        100,
			BTCNorm:        100,
		}},
	}
	return m, m.Check()
}

// Weeks returns the number of completed weekly cycles since inception.
func (m *Master) Weeks() int { return len(m.History) - 1 }

// Position returns the open position with this ticker, or nil.
func (m *Master) Position(ticker string) *Position {
	for _, p := range m.Stocks {
		if p.Ticker == ticker {
			return p
		}
	}
	return nil
}

// Tickers returns the open position tickers in record order.
func (m *Master) Tickers() []string {
	out := make([]string, 0, len(m.Stocks))
	for _, p := range m.Stocks {
		out = append(out, p.Ticker)
	}
	return out
}

// BenchmarkNames returns the benchmark names in stable (sorted) order.
func (m *Master) BenchmarkNames() []string {
	out := make([]string, 0, len(m.Benchmarks))
	for name := range m.Benchmarks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Check validates the structural invariants of the record. It is called
// after every load and before every save, so a record that violates them
// never reaches disk.
func (m *Master) Check() error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version %d, want %d", m.SchemaVersion, SchemaVersion)
	}
	if m.Meta.PortfolioName == "" {
		return errors.New("meta.portfolio_name is empty")
	}
	if m.Meta.InceptionDate.IsZero() || m.Meta.CurrentDate.IsZero() {
		return errors.New("meta dates are incomplete")
	}
	if m.Meta.InceptionValue <= 0 {
		return fmt.Errorf("meta.inception_value must be positive, got %v", m.Meta.InceptionValue)
	}
	if m.Meta.CurrentDate.Before(m.Meta.InceptionDate) {
		return fmt.Errorf("meta.current_date %s precedes inception %s", m.Meta.CurrentDate, m.Meta.InceptionDate)
	}
	if len(m.History) == 0 {
		return errors.New("portfolio_history is empty")
	}
	if m.History[0].Value != m.Meta.InceptionValue {
		return fmt.Errorf("portfolio_history starts at %v, want inception value %v", m.History[0].Value, m.Meta.InceptionValue)
	}
	for i := 1; i < len(m.History); i++ {
		if !m.History[i].On.After(m.History[i-1].On) {
			return fmt.Errorf("portfolio_history dates not strictly increasing at %s", m.History[i].On)
		}
	}
	if last := m.History[len(m.History)-1].On; last != m.Meta.CurrentDate {
		return fmt.Errorf("meta.current_date %s does not match last history date %s", m.Meta.CurrentDate, last)
	}
	if len(m.NormalizedChart) != len(m.History) {
		return fmt.Errorf("normalized_chart has %d rows, want %d", len(m.NormalizedChart), len(m.History))
	}
	for i, n := range m.NormalizedChart {
		if n.On != m.History[i].On {
			return fmt.Errorf("normalized_chart date %s out of sync with history date %s", n.On, m.History[i].On)
		}
	}
	for _, name := range []string{BenchSP500, BenchBitcoin} {
		b, ok := m.Benchmarks[name]
		if !ok || b == nil {
			return fmt.Errorf("benchmark %q is missing", name)
		}
		if b.InceptionReference <= 0 {
			return fmt.Errorf("benchmark %q inception_reference must be positive, got %v", name, b.InceptionReference)
		}
		if len(b.History) != len(m.History) {
			return fmt.Errorf("benchmark %q has %d points, want %d", name, len(b.History), len(m.History))
		}
		for i, p := range b.History {
			if p.On != m.History[i].On {
				return fmt.Errorf("benchmark %q date %s out of sync with history date %s", name, p.On, m.History[i].On)
			}
		}
	}
	seen := make(map[string]bool, len(m.Stocks))
	for _, p := range m.Stocks {
		if p.Ticker == "" {
			return errors.New("open position with empty ticker")
		}
		if seen[p.Ticker] {
			return fmt.Errorf("duplicate open position %q", p.Ticker)
		}
		seen[p.Ticker] = true
		if p.Shares <= 0 {
			return fmt.Errorf("open position %q has non-positive shares %v", p.Ticker, p.Shares)
		}
		if p.CostBasis <= 0 {
			return fmt.Errorf("open position %q has non-positive cost basis %v", p.Ticker, p.CostBasis)
		}
		if p.EntryDate.IsZero() {
			return fmt.Errorf("open position %q has no entry date", p.Ticker)
		}
	}
	return nil
}
