package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "master.json"))

	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(m); err != nil {
		t.Fatal(err)
	}

	back, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if back.Meta != m.Meta {
		t.Errorf("meta round trip = %+v, want %+v", back.Meta, m.Meta)
	}
	if back.Weeks() != 1 {
		t.Errorf("weeks = %d, want 1", back.Weeks())
	}
	p := back.Position("AAA")
	if p == nil || p.Prices.Len() != 2 {
		t.Fatalf("price history did not survive the round trip: %+v", p)
	}
	if _, close, ok := p.Prices.ValueAsOf(day("2025-07-08"), 0); !ok || close != 110 {
		t.Errorf("close = %v, want 110", close)
	}
	if len(back.TradeLog) != len(m.TradeLog) {
		t.Errorf("trade log = %d entries, want %d", len(back.TradeLog), len(m.TradeLog))
	}
}

func TestStoreNotFound(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "master.json"))
	_, err := s.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestStoreRejectsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.json")
	if err := os.WriteFile(path, []byte(`{"schema_version": 1`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Fatal("expected decode error")
	}

	// Structurally valid JSON that violates the record invariants is
	// rejected too.
	if err := os.WriteFile(path, []byte(`{"schema_version": 1, "meta": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Fatal("expected invariant error")
	}
}

func TestStoreArchiveAndWeeklyCopies(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "master.json"))
	s.WeeksDir = filepath.Join(dir, "weeks")

	m := testMaster(t)
	if err := m.Advance(day("2025-07-08"), weekOne()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(m); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		filepath.Join(dir, "archive", "master-20250708.json"),
		filepath.Join(dir, "weeks", "W1", "master.json"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected copy at %s: %v", p, err)
		}
	}
}

func TestStoreRefusesInvalidSave(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "master.json"))

	m := testMaster(t)
	if err := s.Save(m); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatal(err)
	}

	m.SchemaVersion = 99
	if err := s.Save(m); err == nil {
		t.Fatal("expected save of invalid record to fail")
	}
	after, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("failed save altered the record on disk")
	}
}
