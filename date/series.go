package date

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Series stores a chronological series of closing prices keyed by date.
// It is append-only: a value, once recorded for a date, is never modified
// or removed, and appended dates must be strictly increasing.
type Series struct {
	days   []Date
	values []float64
}

// Len returns the number of points in the series.
func (s *Series) Len() int { return len(s.days) }

// Latest returns the most recent date and value in the series.
// If the series is empty it returns zero values.
func (s *Series) Latest() (day Date, value float64) {
	last := len(s.days) - 1
	if last < 0 {
		return Date{}, 0
	}
	return s.days[last], s.values[last]
}

// First returns the earliest date and value in the series.
// If the series is empty it returns zero values.
func (s *Series) First() (day Date, value float64) {
	if len(s.days) == 0 {
		return Date{}, 0
	}
	return s.days[0], s.values[0]
}

// Append records a value for a new date. It fails if the date is already
// present or is not after the latest recorded date, preserving the
// append-only, strictly-increasing contract.
func (s *Series) Append(on Date, v float64) error {
	if last, _ := s.Latest(); !last.IsZero() && !on.After(last) {
		if on == last || s.has(on) {
			return fmt.Errorf("series already has a value on %s", on)
		}
		return fmt.Errorf("cannot append %s before latest point %s", on, last)
	}
	s.days = append(s.days, on)
	s.values = append(s.values, v)
	return nil
}

func (s *Series) has(on Date) bool { return slices.Index(s.days, on) >= 0 }

// Get returns the value recorded exactly at 'day', and whether it exists.
func (s *Series) Get(day Date) (float64, bool) {
	if i := slices.Index(s.days, day); i >= 0 {
		return s.values[i], true
	}
	return 0, false
}

// ValueAsOf returns the value on a given day, or the most recent value
// before it, walking back at most maxBack calendar days. It returns the
// date the value actually belongs to. This is the "last available trading
// day" rule used for market holidays.
func (s *Series) ValueAsOf(day Date, maxBack int) (Date, float64, bool) {
	i, found := slices.BinarySearchFunc(s.days, day, func(d, t Date) int {
		if d.After(t) {
			return 1
		}
		if d.Before(t) {
			return -1
		}
		return 0
	})
	if found {
		return s.days[i], s.values[i], true
	}
	if i == 0 {
		return Date{}, 0, false // no point on or before the given day
	}
	prior := s.days[i-1]
	if maxBack > 0 && prior.Before(day.Add(-maxBack)) {
		return Date{}, 0, false
	}
	return prior, s.values[i-1], true
}

// Values returns an iterator over all date/value pairs in chronological order.
func (s *Series) Values() iter.Seq2[Date, float64] {
	return func(yield func(Date, float64) bool) {
		for i, on := range s.days {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the series.
func (s *Series) Clone() Series {
	return Series{days: slices.Clone(s.days), values: slices.Clone(s.values)}
}

// MarshalJSON encodes the series as a JSON object keyed by date, in
// chronological order, matching the persisted price-map layout.
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, on := range s.days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(on.String())
		val, err := json.Marshal(s.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a series from a JSON object keyed by date.
// Input order is irrelevant; points are sorted chronologically.
func (s *Series) UnmarshalJSON(data []byte) error {
	raw := make(map[string]float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.days = s.days[:0]
	s.values = s.values[:0]
	for k, v := range raw {
		on, err := Parse(k)
		if err != nil {
			return fmt.Errorf("invalid series key: %w", err)
		}
		s.days = append(s.days, on)
		s.values = append(s.values, v)
	}
	sort.Sort(chronological{s})
	return nil
}

var _ json.Marshaler = (*Series)(nil)
var _ json.Unmarshaler = (*Series)(nil)

// chronological sorts a series by day.
type chronological struct{ *Series }

func (c chronological) Len() int           { return len(c.days) }
func (c chronological) Less(i, j int) bool { return c.days[i].Before(c.days[j]) }
func (c chronological) Swap(i, j int) {
	c.days[i], c.days[j] = c.days[j], c.days[i]
	c.values[i], c.values[j] = c.values[j], c.values[i]
}
