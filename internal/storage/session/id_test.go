package session

import (
	"testing"
	"time"
)

func mustID(t *testing.T, module string, date time.Time, counter int) ID {
	t.Helper()
	id, err := NewID(module, date, counter)
	if err != nil {
		t.Fatalf("NewID(%q, %v, %d) failed: %v", module, date, counter, err)
	}
	return id
}

func TestNewID_Canonical(t *testing.T) {
	date := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)
	id := mustID(t, "auth", date, 1)

	if got := id.String(); got != "auth-20260115-1" {
		t.Errorf("String() = %q, want %q", got, "auth-20260115-1")
	}
	if !id.Date().Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date() = %v, want day-truncated UTC", id.Date())
	}
}

func TestNewID_NormalizesModule(t *testing.T) {
	id := mustID(t, "  Auth-Service ", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 2)
	if id.Module() != "auth-service" {
		t.Errorf("Module() = %q, want %q", id.Module(), "auth-service")
	}
}

func TestNewID_TruncatesToUTCDay(t *testing.T) {
	// 23:30 on Jan 15 in UTC-5 is already Jan 16 in UTC.
	est := time.FixedZone("EST", -5*60*60)
	id := mustID(t, "auth", time.Date(2026, 1, 15, 23, 30, 0, 0, est), 1)
	if got := id.String(); got != "auth-20260116-1" {
		t.Errorf("String() = %q, want UTC date", got)
	}
}

func TestNewID_Invalid(t *testing.T) {
	if _, err := NewID("", time.Now(), 1); err == nil {
		t.Error("empty module accepted")
	}
	if _, err := NewID("   ", time.Now(), 1); err == nil {
		t.Error("blank module accepted")
	}
	if _, err := NewID("auth", time.Now(), 0); err == nil {
		t.Error("zero counter accepted")
	}
	if _, err := NewID("auth", time.Now(), -3); err == nil {
		t.Error("negative counter accepted")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		module  string
		date    time.Time
		counter int
	}{
		{"auth", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 1},
		{"auth-service", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 3},
		{"multi-word-module-name", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 42},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			id := mustID(t, tt.module, tt.date, tt.counter)

			parsed, err := Parse(id.String())
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", id.String(), err)
			}
			if parsed.Compare(id) != 0 {
				t.Errorf("Parse(String()) = %v, want %v", parsed, id)
			}
			if parsed.Module() != id.Module() || !parsed.Date().Equal(id.Date()) || parsed.Counter() != id.Counter() {
				t.Errorf("round trip lost a component: %v vs %v", parsed, id)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"auth",
		"auth-20260115",
		"auth-20260115-x",
		"auth-2026015-1",
		"auth-20261315-1",
		"-20260115-1",
		"20260115-1",
	} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) accepted an invalid ID", s)
		}
	}
}

func TestCompare_Ordering(t *testing.T) {
	jan15 := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

	older := mustID(t, "auth", jan15, 2)
	newerDay := mustID(t, "auth", jan16, 1)
	newerCounter := mustID(t, "auth", jan15, 3)
	siblingModule := mustID(t, "billing", jan15, 2)

	if older.Compare(newerDay) >= 0 {
		t.Error("earlier date should order first")
	}
	if older.Compare(newerCounter) >= 0 {
		t.Error("lower counter should order first on the same day")
	}
	if older.Compare(siblingModule) >= 0 {
		t.Error("module name should break (date, counter) ties")
	}
	if older.Compare(older) != 0 {
		t.Error("Compare with self should report equal")
	}
}

func TestIsZero(t *testing.T) {
	var zero ID
	if !zero.IsZero() {
		t.Error("zero value not reported as zero")
	}
	id := mustID(t, "auth", time.Now(), 1)
	if id.IsZero() {
		t.Error("valid ID reported as zero")
	}
}
