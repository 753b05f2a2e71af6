package drafting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
)

var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	leads   []domain.Lead
	listErr error
	patched map[domain.LeadID]string
}

func (f *fakeStore) ListLeads(context.Context) ([]domain.Lead, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Lead(nil), f.leads...), nil
}

func (f *fakeStore) PatchLead(_ context.Context, id domain.LeadID, patch domain.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patched == nil {
		f.patched = make(map[domain.LeadID]string)
	}
	f.patched[id] = *patch.DMDraft
	return nil
}

type fakeComposer struct {
	mu    sync.Mutex
	calls []domain.LeadID
	fail  map[domain.LeadID]bool
}

func (f *fakeComposer) Compose(_ context.Context, lead domain.Lead) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, lead.ID)
	f.mu.Unlock()
	if f.fail[lead.ID] {
		return "", errors.New("model timeout")
	}
	return `"hey ` + lead.FirstName() + `, how do you track client progress?"`, nil
}

func seedLeads() []domain.Lead {
	yesterday := testNow.Add(-20 * time.Hour)
	today := testNow.Add(-time.Hour)
	draft := "already written"
	return []domain.Lead{
		{ID: 1, InstagramHandle: "coach.jo", FullName: "Jo Smith", Score: 9, Stage: domain.StageEngaged, EngagedAt: &yesterday},
		{ID: 2, InstagramHandle: "fit.sam", Score: 7, Stage: domain.StageEngaged, EngagedAt: &yesterday},
		{ID: 3, InstagramHandle: "yoga.lee", Score: 8, Stage: domain.StageEngaged, EngagedAt: &yesterday},
		{ID: 4, InstagramHandle: "lift.max", Score: 10, Stage: domain.StageEngaged, EngagedAt: &yesterday, DMDraft: &draft},
		{ID: 5, InstagramHandle: "run.kai", Score: 10, Stage: domain.StageEngaged, EngagedAt: &today},
		{ID: 6, InstagramHandle: "new.one", Score: 10, Stage: domain.StageNew},
	}
}

func newTestService(store Store, composer Composer, bus events.Bus, cfg Config) *Service {
	svc := NewService(store, composer, bus, cfg, logger.Discard())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestSweepDraftsMissingOnly(t *testing.T) {
	store := &fakeStore{leads: seedLeads()}
	composer := &fakeComposer{fail: map[domain.LeadID]bool{2: true}}
	bus := events.NewInMemoryBus(logger.Discard())

	var published []events.DMDraftsGenerated
	var mu sync.Mutex
	bus.Subscribe(events.DMDraftsGenerated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		published = append(published, e.(events.DMDraftsGenerated))
		mu.Unlock()
		return nil
	}))

	svc := newTestService(store, composer, bus, Config{BatchLimit: 10, Concurrency: 3})
	res, err := svc.Sweep(context.Background(), Options{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	bus.Wait()

	if res.Day != "2026-03-02" || res.Eligible != 4 || len(res.Targets) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Generated != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 generated and 1 failed, got %d/%d", res.Generated, res.Failed)
	}
	if got := store.patched[1]; got != "hey Jo, how do you track client progress?" {
		t.Fatalf("draft should be cleaned, got %q", got)
	}
	if _, ok := store.patched[4]; ok {
		t.Fatal("lead with an existing draft must not be redrafted")
	}
	if _, ok := store.patched[5]; ok {
		t.Fatal("lead engaged today is not eligible yet")
	}
	if len(published) != 1 || published[0].Generated != 2 || published[0].Failed != 1 {
		t.Fatalf("unexpected events %+v", published)
	}
}

func TestSweepTargetsByScoreAndLimit(t *testing.T) {
	store := &fakeStore{leads: seedLeads()}
	svc := newTestService(store, &fakeComposer{}, nil, Config{BatchLimit: 2})

	res, err := svc.Sweep(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res.Targets) != 2 || res.Targets[0].ID != 1 || res.Targets[1].ID != 3 {
		t.Fatalf("expected leads 1 and 3 by score, got %+v", res.Targets)
	}
	if len(store.patched) != 0 {
		t.Fatal("dry run must not write")
	}
}

func TestSweepRegenerateIncludesDrafted(t *testing.T) {
	store := &fakeStore{leads: seedLeads()}
	composer := &fakeComposer{}
	svc := newTestService(store, composer, nil, Config{BatchLimit: 10, Concurrency: 2})

	res, err := svc.Sweep(context.Background(), Options{Regenerate: true, Limit: 1})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res.Targets) != 1 || res.Targets[0].ID != 4 {
		t.Fatalf("expected the drafted top lead, got %+v", res.Targets)
	}
	if store.patched[4] == "already written" {
		t.Fatal("draft should be overwritten")
	}
}

func TestSweepListFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	svc := newTestService(store, &fakeComposer{}, nil, Config{})

	if _, err := svc.Sweep(context.Background(), Options{}); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSweepCancelled(t *testing.T) {
	store := &fakeStore{leads: seedLeads()}
	composer := &fakeComposer{}
	svc := newTestService(store, composer, nil, Config{Concurrency: 1, RequestsPerMinute: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Sweep(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(composer.calls) != 0 {
		t.Fatalf("no model call expected after cancel, got %v", composer.calls)
	}
}
