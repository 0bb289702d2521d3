// Package marketdata fetches end-of-day closing prices from the external
// quote services, with per-provider pacing, retry and a primary/secondary/
// tertiary fallback chain.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quantuminvestor/ledger"
	"github.com/quantuminvestor/ledger/date"
)

// Kind classifies a symbol so the fetcher can pick the right sub-chain
// and the right provider endpoint.
type Kind int

const (
	Stock Kind = iota
	Index
	Crypto
)

func (k Kind) String() string {
	switch k {
	case Stock:
		return "stock"
	case Index:
		return "index"
	case Crypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Request asks for the closing price of one symbol. AsOf is the
// evaluation date; providers return their most recent close, which may
// belong to an earlier trading day.
type Request struct {
	Symbol string
	Kind   Kind
	AsOf   date.Date
}

// Provider is a single quote service. Implementations pace their own
// calls and classify failures: ErrNoData when the service definitively
// has nothing for the symbol, a transient error when a later retry could
// succeed.
type Provider interface {
	Name() string
	Quote(ctx context.Context, req Request) (ledger.Quote, error)
}

// ErrNoData reports that a provider definitively has no quote for the
// symbol. The fetcher moves on to the next provider without retrying.
var ErrNoData = errors.New("no data for symbol")

// TransientError wraps a failure worth retrying: timeouts, HTTP 429,
// provider rate-limit notes, 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// transient marks an error as retryable.
func transient(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether a retry of the same provider could succeed.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Attempt records one failed provider call for diagnostics.
type Attempt struct {
	Provider string
	Err      error
}

// QuoteUnavailableError reports that every provider in the chain was
// tried and none produced a quote. It names each attempt so the failure
// is diagnosable from the log alone.
type QuoteUnavailableError struct {
	Symbol   string
	Attempts []Attempt
}

func (e *QuoteUnavailableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no provider could quote %s:", e.Symbol)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, " %s: %v;", a.Provider, a.Err)
	}
	return strings.TrimSuffix(b.String(), ";")
}
