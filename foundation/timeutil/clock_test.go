package timeutil

import (
	"testing"
	"time"
)

func TestUTCClock_ReturnsUTC(t *testing.T) {
	if loc := (UTCClock{}).Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}

func TestFrozenClock_SetAndAdvance(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	c := NewFrozenClock(base)

	if got := c.Now(); !got.Equal(base) || got.Location() != time.UTC {
		t.Fatalf("unexpected frozen time: %v", got)
	}

	c.Advance(time.Minute)
	if got := c.Now(); !got.Equal(base.Add(time.Minute)) {
		t.Fatalf("advance: got %v", got)
	}

	later := base.Add(48 * time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Fatalf("set: got %v", got)
	}
}

func TestStamp_TruncatesToMicroseconds(t *testing.T) {
	c := NewFrozenClock(time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC))
	got := Stamp(c)
	if got.Nanosecond() != 123456000 {
		t.Fatalf("expected microsecond precision, got %d", got.Nanosecond())
	}
	if Stamp(nil).IsZero() {
		t.Fatalf("nil clock must fall back to system time")
	}
}
