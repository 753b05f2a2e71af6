package quota

import (
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
)

var berlin = mustLocation("Europe/Berlin")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 3600)
	}
	return loc
}

func engagedAt(id domain.LeadID, at time.Time) domain.Lead {
	return domain.Lead{ID: id, Stage: domain.StageEngaged, EngagedAt: &at}
}

func TestStartOfDayUsesLocation(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 30, 0, 0, berlin)
	got := StartOfDay(now)
	want := time.Date(2026, 5, 10, 0, 0, 0, 0, berlin)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	// Same instant seen from UTC is still on the previous calendar day.
	if StartOfDay(now.UTC()).Equal(want) {
		t.Fatal("UTC start of day must differ from Berlin start of day")
	}
}

func TestEngagedTodayCountsFromMidnight(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	midnight := StartOfDay(now)
	leads := []domain.Lead{
		engagedAt(1, midnight),
		engagedAt(2, midnight.Add(-time.Nanosecond)),
		engagedAt(3, now.Add(-time.Minute)),
		{ID: 4, Stage: domain.StageNew},
	}
	if got := EngagedToday(leads, now); got != 2 {
		t.Fatalf("expected 2 engaged today, got %d", got)
	}
}

func TestRemainingIsMonotonicAndFloored(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	var leads []domain.Lead
	prevEngaged, prevRemaining := 0, DefaultDailyLimit
	for i := 0; i < 25; i++ {
		leads = append(leads, engagedAt(domain.LeadID(i), now.Add(-time.Duration(i)*time.Minute)))
		engaged := EngagedToday(leads, now)
		remaining := Remaining(leads, now, DefaultDailyLimit)
		if engaged < prevEngaged {
			t.Fatalf("engagedToday decreased: %d -> %d", prevEngaged, engaged)
		}
		if remaining > prevRemaining {
			t.Fatalf("remaining increased: %d -> %d", prevRemaining, remaining)
		}
		if remaining < 0 {
			t.Fatalf("remaining below zero: %d", remaining)
		}
		prevEngaged, prevRemaining = engaged, remaining
	}
	if prevRemaining != 0 {
		t.Fatalf("expected quota exhausted, got %d", prevRemaining)
	}
}

func TestTrackerCounts(t *testing.T) {
	tracker := NewTracker(20, time.UTC)
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	dmed := now.Add(-time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	leads := []domain.Lead{
		engagedAt(1, now.Add(-2*time.Hour)),
		engagedAt(2, now.Add(-3*time.Hour)),
		engagedAt(3, yesterday),
		{ID: 4, Stage: domain.StageDmed, EngagedAt: &yesterday, DmedAt: &dmed},
	}

	got := tracker.Counts(leads, now)
	if got.EngagedToday != 2 || got.DmedToday != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if got.RemainingQuota != 18 || got.LimitReached {
		t.Fatalf("unexpected quota %+v", got)
	}
	if got.Progress != 0.1 {
		t.Fatalf("expected progress 0.1, got %v", got.Progress)
	}
}

func TestTrackerLimitReachedCapsProgress(t *testing.T) {
	tracker := NewTracker(2, time.UTC)
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	leads := []domain.Lead{
		engagedAt(1, now.Add(-time.Minute)),
		engagedAt(2, now.Add(-2*time.Minute)),
		engagedAt(3, now.Add(-3*time.Minute)),
	}
	got := tracker.Counts(leads, now)
	if !got.LimitReached || got.RemainingQuota != 0 || got.Progress != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
}
