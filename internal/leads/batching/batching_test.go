package batching

import (
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
)

func newLead(id domain.LeadID, score int) domain.Lead {
	return domain.Lead{ID: id, Score: score, Stage: domain.StageNew}
}

func engagedLead(id domain.LeadID, score int, at time.Time) domain.Lead {
	return domain.Lead{ID: id, Score: score, Stage: domain.StageEngaged, EngagedAt: &at}
}

func TestComputeSnapshotTakesTopScoresUpToRemainingQuota(t *testing.T) {
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)

	// 25 new leads scored 10,9,...,0,10,9,... plus 3 engaged today.
	var leads []domain.Lead
	for i := 0; i < 25; i++ {
		leads = append(leads, newLead(domain.LeadID(i+1), 10-(i%11)))
	}
	for i := 0; i < 3; i++ {
		leads = append(leads, engagedLead(domain.LeadID(100+i), 5, now.Add(-time.Hour)))
	}

	snap := ComputeSnapshot(leads, now, 20)
	if snap.Len() != 17 {
		t.Fatalf("expected 17 members, got %d", snap.Len())
	}

	sorted := ByScoreDesc(leads[:25])
	for i, l := range sorted {
		if in := snap.Contains(l.ID); in != (i < 17) {
			t.Errorf("rank %d (id %d, score %d): membership %v", i, l.ID, l.Score, in)
		}
	}
}

func TestComputeSnapshotTiesKeepListOrder(t *testing.T) {
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	leads := []domain.Lead{newLead(1, 5), newLead(2, 7), newLead(3, 5), newLead(4, 5)}

	snap := ComputeSnapshot(leads, now, 3)
	got := snap.IDs()
	want := []domain.LeadID{2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestComputeSnapshotEmptyWhenQuotaSpent(t *testing.T) {
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	leads := []domain.Lead{newLead(1, 9), engagedLead(2, 1, now.Add(-time.Minute))}
	if snap := ComputeSnapshot(leads, now, 1); snap.Len() != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.IDs())
	}
}

func TestSnapshotterFreezesFirstNonEmptyList(t *testing.T) {
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	s := NewSnapshotter(20)

	if s.Observe(nil, now) {
		t.Fatal("empty list must not take the snapshot")
	}
	if _, taken := s.Taken(); taken {
		t.Fatal("snapshot should not exist yet")
	}

	var leads []domain.Lead
	for i := 0; i < 25; i++ {
		leads = append(leads, newLead(domain.LeadID(i+1), 10-(i%11)))
	}
	if !s.Observe(leads, now) {
		t.Fatal("first non-empty list must take the snapshot")
	}
	frozen := s.IDs()

	// A late, top-scored lead arrives on refresh.
	late := newLead(26, 10)
	refreshed := append([]domain.Lead{late}, leads...)
	if s.Observe(refreshed, now.Add(time.Hour)) {
		t.Fatal("snapshot must never be retaken")
	}
	for _, l := range s.Effective(refreshed) {
		if l.ID == late.ID {
			t.Fatal("late lead entered the effective batch")
		}
	}
	if s.IDs().Len() != frozen.Len() {
		t.Fatal("snapshot membership changed")
	}
}

func TestEffectiveBatchOnlyShrinks(t *testing.T) {
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	leads := []domain.Lead{newLead(1, 9), newLead(2, 8), newLead(3, 7)}
	s := NewSnapshotter(20)
	s.Observe(leads, now)

	mutated := []domain.Lead{
		engagedLead(1, 9, now),
		{ID: 2, Score: 8, Stage: domain.StageDead},
		newLead(3, 7),
		newLead(4, 10),
	}
	eff := s.Effective(mutated)
	if len(eff) != 1 || eff[0].ID != 3 {
		t.Fatalf("expected only lead 3, got %+v", eff)
	}
	for _, l := range eff {
		if !s.IDs().Contains(l.ID) {
			t.Fatalf("effective member %d outside snapshot", l.ID)
		}
	}
}

func TestEligibleForDMMidnightBoundary(t *testing.T) {
	loc := time.FixedZone("operator", -5*3600)
	engaged := time.Date(2026, 6, 1, 23, 59, 59, 999_000_000, loc)
	leads := []domain.Lead{engagedLead(1, 5, engaged)}

	if got := EligibleForDM(leads, engaged); len(got) != 0 {
		t.Fatal("same-day engagement must not be eligible")
	}
	nextMidnight := time.Date(2026, 6, 2, 0, 0, 0, 0, loc)
	if got := EligibleForDM(leads, nextMidnight); len(got) != 1 {
		t.Fatal("engagement before midnight must be eligible at midnight")
	}
}

func TestEligibleForDMFiltersAndOrders(t *testing.T) {
	now := time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	draft := "hey"

	leads := []domain.Lead{
		engagedLead(1, 3, old),
		engagedLead(2, 9, old),
		engagedLead(3, 10, now.Add(-time.Hour)),
		{ID: 4, Score: 10, Stage: domain.StageEngaged},
		{ID: 5, Score: 10, Stage: domain.StageDmed, EngagedAt: &old},
		{ID: 6, Score: 9, Stage: domain.StageEngaged, EngagedAt: &old, DMDraft: &draft},
	}

	got := EligibleForDM(leads, now)
	want := []domain.LeadID{2, 6, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %d leads, got %+v", len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, got[i].ID)
		}
	}
	if ReadyCount(got) != 1 {
		t.Fatalf("expected one ready draft, got %d", ReadyCount(got))
	}
	missing := MissingDrafts(got, 1)
	if len(missing) != 1 || missing[0].ID != 2 {
		t.Fatalf("unexpected missing drafts %+v", missing)
	}
}
