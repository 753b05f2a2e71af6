package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/logger"
)

type fakeWriter struct {
	calls []writeCall
	err   error
}

type writeCall struct {
	ids   []domain.LeadID
	patch domain.Patch
}

func (f *fakeWriter) PatchLeads(_ context.Context, ids []domain.LeadID, patch domain.Patch) error {
	f.calls = append(f.calls, writeCall{ids: append([]domain.LeadID(nil), ids...), patch: patch})
	return f.err
}

func seededState() *State {
	s := NewState()
	s.Replace([]domain.Lead{
		{ID: 1, Stage: domain.StageNew, Score: 9},
		{ID: 2, Stage: domain.StageNew, Score: 8},
		{ID: 3, Stage: domain.StageNew, Score: 7},
		{ID: 4, Stage: domain.StageNew, Score: 6},
	}, time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	return s
}

func fixedClock(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func TestApplyBatchStampsOneTimestampAndWritesOnce(t *testing.T) {
	at := time.Date(2026, 6, 1, 9, 15, 0, 0, time.UTC)
	writer := &fakeWriter{}
	m := NewMutator(writer, logger.Discard(), fixedClock(at))
	state := seededState()

	batch, err := m.ApplyBatch(context.Background(), state, []domain.LeadID{1, 2, 3}, domain.StageEngaged, domain.StampEngagedAt)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(writer.calls) != 1 {
		t.Fatalf("expected one remote call, got %d", len(writer.calls))
	}
	if got := writer.calls[0].ids; len(got) != 3 {
		t.Fatalf("expected 3 ids in the single call, got %v", got)
	}

	for _, id := range []domain.LeadID{1, 2, 3} {
		lead, _ := state.Find(id)
		if lead.Stage != domain.StageEngaged {
			t.Fatalf("lead %d: expected engaged, got %s", id, lead.Stage)
		}
		if lead.EngagedAt == nil || !lead.EngagedAt.Equal(at) {
			t.Fatalf("lead %d: expected engagedAt %v, got %v", id, at, lead.EngagedAt)
		}
		if lead.DmedAt != nil {
			t.Fatalf("lead %d: dmedAt must stay nil", id)
		}
	}
	if untouched, _ := state.Find(4); untouched.Stage != domain.StageNew {
		t.Fatal("lead outside the batch changed")
	}
	if !batch.At.Equal(at) || len(batch.Matched) != 3 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestFailedWriteKeepsOptimisticState(t *testing.T) {
	writeErr := errors.New("lead store 500: boom")
	writer := &fakeWriter{err: writeErr}

	var notified error
	m := NewMutator(writer, logger.Discard(), OnFailure(func(_ context.Context, _ Batch, err error) {
		notified = err
	}))
	state := seededState()

	_, err := m.ApplyBatch(context.Background(), state, []domain.LeadID{2}, domain.StageDead, domain.StampNone)
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if !errors.Is(notified, writeErr) {
		t.Fatalf("failure callback not invoked, got %v", notified)
	}
	lead, _ := state.Find(2)
	if lead.Stage != domain.StageDead {
		t.Fatalf("optimistic update was rolled back: %s", lead.Stage)
	}
	if d := state.Diverged(); len(d) != 1 || d[0] != 2 {
		t.Fatalf("expected lead 2 to diverge from remote, got %v", d)
	}
}

func TestRefreshDropsOptimisticPatches(t *testing.T) {
	m := NewMutator(&fakeWriter{err: errors.New("down")}, logger.Discard())
	state := seededState()
	_, _ = m.ApplyBatch(context.Background(), state, []domain.LeadID{1}, domain.StageEngaged, domain.StampEngagedAt)

	state.Replace(state.Remote(), time.Now())
	if lead, _ := state.Find(1); lead.Stage != domain.StageNew {
		t.Fatalf("refresh must replace local state, got %s", lead.Stage)
	}
	if len(state.Diverged()) != 0 {
		t.Fatal("no divergence expected after refresh")
	}
}

func TestPrepareValidation(t *testing.T) {
	m := NewMutator(&fakeWriter{}, logger.Discard())
	state := seededState()

	if _, err := m.Prepare(state, nil, domain.StageEngaged, domain.StampEngagedAt); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := m.Prepare(state, []domain.LeadID{1}, domain.Stage("won"), domain.StampNone); !errors.Is(err, domain.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
	if _, err := m.Prepare(state, []domain.LeadID{1}, domain.StageEngaged, domain.StampField("replied_at")); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestPrepareDedupesAndKeepsUnknownIDs(t *testing.T) {
	writer := &fakeWriter{}
	m := NewMutator(writer, logger.Discard())
	state := seededState()

	batch, err := m.ApplyBatch(context.Background(), state, []domain.LeadID{3, 3, 99}, domain.StageDmed, domain.StampDmedAt)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(batch.IDs) != 2 || len(batch.Matched) != 1 || batch.Matched[0] != 3 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if got := writer.calls[0].ids; len(got) != 2 || got[0] != 3 || got[1] != 99 {
		t.Fatalf("remote call should carry every requested id, got %v", got)
	}
}
