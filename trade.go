package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantuminvestor/ledger/date"
)

// Action is the direction of a trade instruction.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// ParseAction parses a trade action, accepting any case.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Buy, "buy":
		return Buy, nil
	case Sell, "sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade action %q", s)
	}
}

// Trade is a single instruction of a rebalance batch.
type Trade struct {
	On     date.Date `json:"date"`
	Ticker string    `json:"ticker"`
	Name   string    `json:"name,omitempty"`
	Action Action    `json:"action"`
	Shares float64   `json:"shares"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason,omitempty"`
}

// InvalidTradeError rejects a trade instruction that cannot be applied.
type InvalidTradeError struct {
	Trade  Trade
	Reason string
}

func (e *InvalidTradeError) Error() string {
	return fmt.Sprintf("invalid trade %s %v %s @ %v: %s", e.Trade.Action, e.Trade.Shares, e.Trade.Ticker, e.Trade.Price, e.Reason)
}

func invalid(t Trade, format string, args ...any) error {
	return &InvalidTradeError{Trade: t, Reason: fmt.Sprintf(format, args...)}
}

// Constraints bound the portfolio shape after a trade batch. A zero field
// disables that bound.
type Constraints struct {
	MinPositions int     // fewest open positions allowed
	MaxPositions int     // most open positions allowed
	MaxWeight    float64 // largest position as a fraction of total value
	MinValue     float64 // smallest position value in currency units
}

// DefaultConstraints are the production portfolio rules.
var DefaultConstraints = Constraints{
	MinPositions: 6,
	MaxPositions: 10,
	MaxWeight:    0.20,
	MinValue:     500,
}

// ApplyTrades applies a batch of trade instructions transactionally: the
// whole batch is validated, applied to a scratch copy and checked against
// the constraints before the record is touched. On any error the record
// is left unchanged.
//
// A BUY of a held ticker blends the cost basis at the share-weighted
// average; a SELL that reaches zero shares moves the position to
// closed_positions with its realized P/L and archived price history.
// Selling more shares than held is rejected.
func (m *Master) ApplyTrades(trades []Trade, c Constraints) error {
	if len(trades) == 0 {
		return nil
	}
	scratch := m.cloneHoldings()
	for _, t := range trades {
		if err := scratch.apply(t); err != nil {
			return err
		}
	}
	if err := c.check(scratch); err != nil {
		return err
	}
	m.Stocks = scratch.Stocks
	m.ClosedPositions = scratch.ClosedPositions
	m.TradeLog = scratch.TradeLog
	return nil
}

// holdings is the scratch state a trade batch runs against.
type holdings struct {
	Stocks          []*Position
	ClosedPositions []*ClosedPosition
	TradeLog        []TradeRecord
	currentDate     date.Date
}

func (m *Master) cloneHoldings() *holdings {
	h := &holdings{
		Stocks:          make([]*Position, 0, len(m.Stocks)),
		ClosedPositions: make([]*ClosedPosition, 0, len(m.ClosedPositions)),
		TradeLog:        append([]TradeRecord(nil), m.TradeLog...),
		currentDate:     m.Meta.CurrentDate,
	}
	for _, p := range m.Stocks {
		cp := *p
		cp.Prices = p.Prices.Clone()
		h.Stocks = append(h.Stocks, &cp)
	}
	for _, p := range m.ClosedPositions {
		cp := *p
		cp.Prices = p.Prices.Clone()
		h.ClosedPositions = append(h.ClosedPositions, &cp)
	}
	return h
}

func (h *holdings) position(ticker string) (int, *Position) {
	for i, p := range h.Stocks {
		if p.Ticker == ticker {
			return i, p
		}
	}
	return -1, nil
}

func (h *holdings) apply(t Trade) error {
	if t.Ticker == "" {
		return invalid(t, "ticker is required")
	}
	if t.Shares <= 0 {
		return invalid(t, "shares must be positive")
	}
	if t.Price <= 0 {
		return invalid(t, "price must be positive")
	}
	if t.On.IsZero() {
		t.On = h.currentDate
	}
	rec := TradeRecord{On: t.On, Ticker: t.Ticker, Action: t.Action, Shares: t.Shares, Price: t.Price, Reason: t.Reason}
	switch t.Action {
	case Buy:
		if err := h.buy(t); err != nil {
			return err
		}
	case Sell:
		pl, err := h.sell(t)
		if err != nil {
			return err
		}
		rec.RealizedPL = pl
	default:
		return invalid(t, "unknown action")
	}
	h.TradeLog = append(h.TradeLog, rec)
	return nil
}

func (h *holdings) buy(t Trade) error {
	_, p := h.position(t.Ticker)
	if p == nil {
		name := t.Name
		if name == "" {
			name = t.Ticker
		}
		np := &Position{
			Ticker:    t.Ticker,
			Name:      name,
			Shares:    t.Shares,
			CostBasis: t.Price,
			EntryDate: t.On,
		}
		// Seed the price history with the entry price so the next
		// cycle has a prior close to compute returns against.
		if err := np.Prices.Append(t.On, Round2(t.Price)); err != nil {
			return invalid(t, "cannot seed price history: %v", err)
		}
		h.Stocks = append(h.Stocks, np)
		return nil
	}
	// Adding to a held position blends the cost basis at the
	// share-weighted average.
	held := decimal.NewFromFloat(p.Shares)
	add := decimal.NewFromFloat(t.Shares)
	price := decimal.NewFromFloat(t.Price)
	basis := decimal.NewFromFloat(p.CostBasis)
	total := held.Add(add)
	blended := held.Mul(basis).Add(add.Mul(price)).Div(total)
	p.Shares = total.InexactFloat64()
	p.CostBasis = blended.Round(4).InexactFloat64()
	return nil
}

func (h *holdings) sell(t Trade) (realizedPL float64, err error) {
	i, p := h.position(t.Ticker)
	if p == nil {
		return 0, invalid(t, "no open position")
	}
	held := decimal.NewFromFloat(p.Shares)
	sold := decimal.NewFromFloat(t.Shares)
	if sold.GreaterThan(held) {
		return 0, invalid(t, "only %v shares held", p.Shares)
	}
	price := decimal.NewFromFloat(t.Price)
	basis := decimal.NewFromFloat(p.CostBasis)
	pl := sold.Mul(price.Sub(basis)).Round(2)
	remaining := held.Sub(sold)
	if remaining.IsZero() {
		h.ClosedPositions = append(h.ClosedPositions, &ClosedPosition{
			Ticker:     p.Ticker,
			Name:       p.Name,
			Shares:     t.Shares,
			CostBasis:  p.CostBasis,
			EntryDate:  p.EntryDate,
			ExitDate:   t.On,
			ExitPrice:  t.Price,
			RealizedPL: pl.InexactFloat64(),
			Prices:     p.Prices,
		})
		h.Stocks = append(h.Stocks[:i], h.Stocks[i+1:]...)
		return pl.InexactFloat64(), nil
	}
	p.Shares = remaining.InexactFloat64()
	return pl.InexactFloat64(), nil
}

// check validates the post-batch portfolio shape. Position values use the
// latest recorded close, or the cost basis when no close is recorded yet.
func (c Constraints) check(h *holdings) error {
	if c.MinPositions > 0 && len(h.Stocks) < c.MinPositions {
		return fmt.Errorf("portfolio would hold %d positions, minimum is %d", len(h.Stocks), c.MinPositions)
	}
	if c.MaxPositions > 0 && len(h.Stocks) > c.MaxPositions {
		return fmt.Errorf("portfolio would hold %d positions, maximum is %d", len(h.Stocks), c.MaxPositions)
	}
	if c.MaxWeight <= 0 && c.MinValue <= 0 {
		return nil
	}
	values := make(map[string]float64, len(h.Stocks))
	var total float64
	for _, p := range h.Stocks {
		price := p.CostBasis
		if _, latest := p.Prices.Latest(); latest > 0 {
			price = latest
		}
		v := p.Value(price)
		values[p.Ticker] = v
		total += v
	}
	for _, p := range h.Stocks {
		v := values[p.Ticker]
		if c.MinValue > 0 && v < c.MinValue {
			return fmt.Errorf("position %s would be worth %.2f, minimum is %.2f", p.Ticker, v, c.MinValue)
		}
		if c.MaxWeight > 0 && total > 0 && v/total > c.MaxWeight {
			return fmt.Errorf("position %s would be %.1f%% of the portfolio, cap is %.0f%%", p.Ticker, v/total*100, c.MaxWeight*100)
		}
	}
	return nil
}
