package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Date
		err  bool
	}{
		{in: "2025-07-01", want: New(2025, time.July, 1)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: "2025-12-31", want: New(2025, time.December, 31)},
		{in: "not-a-date", err: true},
		{in: "2025/07/01", err: true},
		{in: "", err: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("Parse(%q) error = %v, want error %v", tt.in, err, tt.err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewNormalizes(t *testing.T) {
	// Out-of-range day/month values roll over like time.Date.
	if got := New(2025, time.January, 32); got != New(2025, time.February, 1) {
		t.Errorf("New(2025, 1, 32) = %s, want 2025-02-01", got)
	}
	if got := New(2025, time.December, 31).Add(1); got != New(2026, time.January, 1) {
		t.Errorf("Add(1) across year = %s, want 2026-01-01", got)
	}
}

func TestLastWeekday(t *testing.T) {
	friday := New(2025, time.August, 22)
	tests := []struct {
		in, want Date
	}{
		{New(2025, time.August, 23), friday}, // Saturday
		{New(2025, time.August, 24), friday}, // Sunday
		{friday, friday},
		{New(2025, time.August, 25), New(2025, time.August, 25)}, // Monday
	}
	for _, tt := range tests {
		if got := tt.in.LastWeekday(); got != tt.want {
			t.Errorf("%s (%s).LastWeekday() = %s, want %s", tt.in, tt.in.Weekday(), got, tt.want)
		}
	}
}

func TestCompact(t *testing.T) {
	if got := New(2025, time.July, 4).Compact(); got != "20250704" {
		t.Errorf("Compact() = %q, want 20250704", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	on := New(2025, time.March, 9)
	data, err := json.Marshal(on)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2025-03-09"` {
		t.Errorf("marshal = %s, want \"2025-03-09\"", data)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != on {
		t.Errorf("round trip = %s, want %s", back, on)
	}
}
