package clock

import (
	"testing"
	"time"
)

func TestDayTruncatesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	instant := time.Date(2026, 3, 2, 1, 30, 0, 0, loc) // 2026-03-01T20:30Z

	got := Day(instant)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Day(%v) = %v, want %v", instant, got, want)
	}
}

func TestFakeAdvanceCrossesDayBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	if !fake.Today().Equal(Day(start)) {
		t.Fatalf("unexpected initial day: %v", fake.Today())
	}

	fake.Advance(2 * time.Hour)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !fake.Today().Equal(want) {
		t.Fatalf("expected day to roll over to %v, got %v", want, fake.Today())
	}
}

func TestFakeSet(t *testing.T) {
	fake := NewFake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	target := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	fake.Set(target)
	if !fake.Now().Equal(target) {
		t.Fatalf("expected %v, got %v", target, fake.Now())
	}
}
