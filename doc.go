// Package ledger implements a weekly portfolio ledger: an append-only
// master record of open and closed positions, benchmark histories and
// normalized chart data, plus the trade applier and return calculators
// that advance it one evaluation date at a time.
//
// The record is persisted as a single versioned JSON document. All
// mutations follow a gather-then-mutate discipline: inputs are validated
// in full before anything is written, so a failed cycle leaves the record
// exactly as it was.
package ledger
