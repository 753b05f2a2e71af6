package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionTableAllowsEveryDistinctPair(t *testing.T) {
	stages := PipelineStages()
	got := Transitions()
	if want := len(stages) * (len(stages) - 1); len(got) != want {
		t.Fatalf("expected %d transitions, got %d", want, len(got))
	}

	for _, from := range stages {
		for _, to := range stages {
			_, err := LookupTransition(from, to)
			if from == to {
				if !errors.Is(err, ErrSameStage) {
					t.Errorf("%s -> %s: expected ErrSameStage, got %v", from, to, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s -> %s: expected allowed, got %v", from, to, err)
			}
		}
	}
}

func TestTerminalStagesCanBeLeft(t *testing.T) {
	for _, from := range []Stage{StageClosed, StageDead} {
		if _, err := LookupTransition(from, StageNew); err != nil {
			t.Errorf("expected %s -> new to be allowed, got %v", from, err)
		}
	}
}

func TestLookupTransitionRejectsUnknownStage(t *testing.T) {
	if _, err := LookupTransition(StageNew, Stage("won")); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestMoveLeadStampsOnlyTheEnteredStage(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name        string
		from        Stage
		to          Stage
		wantEngaged *time.Time
		wantDmed    *time.Time
	}{
		{name: "into engaged", from: StageNew, to: StageEngaged, wantEngaged: &now},
		{name: "into dmed", from: StageEngaged, to: StageDmed, wantEngaged: &earlier, wantDmed: &now},
		{name: "into replied", from: StageDmed, to: StageReplied, wantEngaged: &earlier, wantDmed: &earlier},
		{name: "into dead", from: StageNew, to: StageDead},
		{name: "new straight to closed", from: StageNew, to: StageClosed},
		{name: "re-entering engaged overwrites", from: StageDead, to: StageEngaged, wantEngaged: &now, wantDmed: &earlier},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lead := Lead{ID: 7, Stage: tc.from}
			if tc.from != StageNew && tc.from != StageDead {
				lead.EngagedAt = &earlier
			}
			if tc.from == StageDmed || tc.from == StageDead {
				lead.DmedAt = &earlier
			}
			if tc.from == StageDead {
				lead.EngagedAt = &earlier
			}

			moved, tr, err := MoveLead(lead, tc.to, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if moved.Stage != tc.to || tr.To != tc.to || tr.From != tc.from {
				t.Fatalf("unexpected result stage=%s transition=%+v", moved.Stage, tr)
			}
			assertTime(t, "engagedAt", moved.EngagedAt, tc.wantEngaged)
			assertTime(t, "dmedAt", moved.DmedAt, tc.wantDmed)
		})
	}
}

func TestMoveLeadToSameStageIsNoop(t *testing.T) {
	lead := Lead{ID: 1, Stage: StageEngaged}
	moved, _, err := MoveLead(lead, StageEngaged, time.Now())
	if !errors.Is(err, ErrSameStage) {
		t.Fatalf("expected ErrSameStage, got %v", err)
	}
	if moved.EngagedAt != nil {
		t.Fatal("no-op move must not stamp")
	}
}

func TestParseStage(t *testing.T) {
	if s, err := ParseStage(""); err != nil || s != StageNew {
		t.Fatalf("empty status should default to new, got %q %v", s, err)
	}
	if s, err := ParseStage("call_booked"); err != nil || s != StageCallBooked {
		t.Fatalf("unexpected parse result %q %v", s, err)
	}
	if _, err := ParseStage("Call Booked"); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestPatchApplyToCopiesValues(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := StagePatch(StageEngaged, StampEngagedAt, at)
	lead := p.ApplyTo(Lead{ID: 3, Stage: StageNew})

	*p.EngagedAt = at.Add(time.Hour)
	if !lead.EngagedAt.Equal(at) {
		t.Fatal("applied timestamp must not alias the patch value")
	}
	if lead.DmedAt != nil {
		t.Fatal("dmedAt must stay untouched")
	}
}

func TestLeadProfileURLAndDraft(t *testing.T) {
	blank := "   "
	lead := Lead{InstagramHandle: "@coach.jo", DMDraft: &blank}
	if got := lead.ProfileURL(); got != "https://instagram.com/coach.jo" {
		t.Fatalf("unexpected profile url %q", got)
	}
	if lead.HasDraft() {
		t.Fatal("blank draft should not count as ready")
	}
	if lead.FirstName() != "@coach.jo" {
		t.Fatalf("expected handle fallback, got %q", lead.FirstName())
	}
}

func assertTime(t *testing.T, field string, got, want *time.Time) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s: expected nil, got %v", field, *got)
	case want != nil && got == nil:
		t.Errorf("%s: expected %v, got nil", field, *want)
	case want != nil && !got.Equal(*want):
		t.Errorf("%s: expected %v, got %v", field, *want, *got)
	}
}
