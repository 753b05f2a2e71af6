// Package session holds one operator session's view of the lead pipeline: the
// fetched leads, the frozen engage batch, the live DM batch and the two paced runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/batching"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/mutation"
	"outreach_backend/internal/leads/pacing"
	"outreach_backend/internal/leads/quota"
	"outreach_backend/internal/notification/sse"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// RunKind identifies one of the two paced runs.
type RunKind string

const (
	RunEngage RunKind = "engage"
	RunDM     RunKind = "dm"
)

// ParseRunKind validates a run kind from a request path.
func ParseRunKind(raw string) (RunKind, error) {
	switch RunKind(raw) {
	case RunEngage, RunDM:
		return RunKind(raw), nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown run kind %q", raw))
}

// Target is what a paced run opens for one lead.
type Target struct {
	LeadID domain.LeadID
	Handle string
	URL    string
}

// Store is the lead store as a session uses it.
type Store interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	PatchLead(ctx context.Context, id domain.LeadID, patch domain.Patch) error
	PatchLeads(ctx context.Context, ids []domain.LeadID, patch domain.Patch) error
}

// Notifier pushes live events to the operator's dashboard.
type Notifier interface {
	Publish(sessionID uuid.UUID, event sse.Event)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Store          Store
	Tracker        *quota.Tracker
	Bus            events.Bus
	Notifier       Notifier
	Log            *logger.Logger
	EngageInterval time.Duration
	DMInterval     time.Duration
	Now            func() time.Time
	Ticker         pacing.TickerFactory
}

// Session is safe for concurrent use. Engine state is only touched under mu.
type Session struct {
	id        uuid.UUID
	createdAt time.Time
	deps      Deps
	log       *logger.Logger
	mutator   *mutation.Mutator

	mu             sync.Mutex
	lastSeen       time.Time
	state          *mutation.State
	snapshot       *batching.Snapshotter
	lastRefreshErr error
	lastWriteErr   error

	engage *pacing.Scheduler[Target]
	dm     *pacing.Scheduler[Target]
}

// New creates a session with an empty lead list and no snapshot.
func New(id uuid.UUID, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ticker == nil {
		deps.Ticker = pacing.RealTicker
	}
	if deps.Tracker == nil {
		deps.Tracker = quota.NewTracker(quota.DefaultDailyLimit, time.Local)
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}

	now := deps.Now()
	s := &Session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
		deps:      deps,
		log:       deps.Log.WithSession(id.String()),
		state:     mutation.NewState(),
		snapshot:  batching.NewSnapshotter(deps.Tracker.Limit()),
	}
	s.mutator = mutation.NewMutator(deps.Store, s.log,
		mutation.WithClock(deps.Now),
		mutation.OnFailure(s.batchWriteFailed),
	)
	s.engage = s.newScheduler(RunEngage, deps.EngageInterval)
	s.dm = s.newScheduler(RunDM, deps.DMInterval)
	return s
}

func (s *Session) newScheduler(kind RunKind, interval time.Duration) *pacing.Scheduler[Target] {
	return pacing.New[Target](interval,
		pacing.WithTicker[Target](s.deps.Ticker),
		pacing.WithProgress[Target](func(p pacing.Progress) {
			s.log.RunProgress(string(kind), p.Opened, p.Total, p.Running)
			s.notify(sse.Event{Type: sse.EventRunProgress, Data: RunStatus{Kind: kind, Progress: p}})
			if s.deps.Bus != nil {
				s.deps.Bus.Publish(context.Background(), events.OutreachRunProgress{
					BaseEvent: events.Now(s.deps.Now),
					SessionID: s.id,
					Kind:      string(kind),
					Opened:    p.Opened,
					Total:     p.Total,
					Running:   p.Running,
				})
			}
		}),
	)
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Touch records activity for idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.deps.Now()
	s.mu.Unlock()
}

// IdleSince returns the last recorded activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Refresh fetches the full lead list. On success it replaces both state holders
// and takes the engage snapshot if this is the first non-empty list. On failure
// the previous list stays in place and the error is recorded.
func (s *Session) Refresh(ctx context.Context) error {
	leads, err := s.deps.Store.ListLeads(ctx)

	s.mu.Lock()
	if err != nil {
		s.lastRefreshErr = err
		s.mu.Unlock()
		s.log.StoreError("list_leads", err)
		return apperr.Unavailable("lead store unavailable", err).WithOp("session.Refresh")
	}

	now := s.deps.Now()
	s.state.Replace(leads, now)
	s.lastRefreshErr = nil
	if s.snapshot.Observe(s.state.Local(), s.deps.Tracker.Now(now)) {
		s.log.Info("engage batch snapshot taken", "members", s.snapshot.IDs().Len())
	}
	s.mu.Unlock()

	s.notify(sse.Event{Type: sse.EventLeadsRefreshed, Data: map[string]int{"count": len(leads)}})
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.LeadsRefreshed{BaseEvent: events.Now(s.deps.Now), SessionID: s.id, Count: len(leads)})
	}
	return nil
}

// EnsureLoaded refreshes once if nothing has been fetched yet. The error is
// recorded on the session and also returned.
func (s *Session) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.state.Loaded()
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// Board computes every derived view from one read of the local list.
func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads := s.state.Local()
	now := s.deps.Tracker.Now(s.deps.Now())

	dmBatch := batching.EligibleForDM(leads, now)
	board := Board{
		SessionID:   s.id,
		GeneratedAt: now,
		Counts:      s.deps.Tracker.Counts(leads, now),
		EngageBatch: s.snapshot.Effective(leads),
		DMBatch:     dmBatch,
		ReadyCount:  batching.ReadyCount(dmBatch),
		Loaded:      s.state.Loaded(),
		RefreshedAt: s.state.RefreshedAt(),
		Runs: []RunStatus{
			{Kind: RunEngage, Progress: s.engage.Progress(), Interval: s.engage.Interval()},
			{Kind: RunDM, Progress: s.dm.Progress(), Interval: s.dm.Interval()},
		},
		Diverged: len(s.state.Diverged()),
	}
	if takenAt, ok := s.snapshot.Taken(); ok {
		board.SnapshotTakenAt = &takenAt
		board.SnapshotSize = s.snapshot.IDs().Len()
	}
	if s.lastRefreshErr != nil {
		board.LastRefreshError = s.lastRefreshErr.Error()
	}
	if s.lastWriteErr != nil {
		board.LastWriteError = s.lastWriteErr.Error()
	}
	return board
}

// Leads returns the local list filtered and sorted for the pipeline view.
func (s *Session) Leads(filter Filter) []domain.Lead {
	s.mu.Lock()
	leads := s.state.Local()
	out := filter.Apply(leads)
	s.mu.Unlock()
	return out
}

// ChangeStage moves one lead. The store is written first; the local copy only
// changes once the store accepted the patch, then the list is refreshed.
func (s *Session) ChangeStage(ctx context.Context, id domain.LeadID, to domain.Stage) (domain.Lead, error) {
	s.mu.Lock()
	lead, ok := s.state.Find(id)
	s.mu.Unlock()
	if !ok {
		return domain.Lead{}, apperr.NotFound(fmt.Sprintf("lead %d not found", id))
	}

	now := s.deps.Now()
	moved, transition, err := domain.MoveLead(lead, to, now)
	switch {
	case errors.Is(err, domain.ErrSameStage):
		return lead, apperr.Conflict(fmt.Sprintf("lead %d is already %s", id, to))
	case errors.Is(err, domain.ErrUnknownStage):
		return lead, apperr.Validation(err.Error())
	case err != nil:
		return lead, err
	}

	patch := transition.Patch(now)
	if err := s.deps.Store.PatchLead(ctx, id, patch); err != nil {
		s.log.StoreError("patch_lead", err)
		return lead, apperr.Unavailable("failed to update lead", err).WithOp("session.ChangeStage")
	}

	s.mu.Lock()
	s.state.Apply([]domain.LeadID{id}, patch)
	s.mu.Unlock()

	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.LeadStageChanged{
			BaseEvent: events.NewBaseEventAt(now),
			SessionID: s.id,
			LeadID:    id,
			From:      transition.From,
			To:        transition.To,
		})
	}

	// The follow-up refresh may fail; its error is recorded on the session.
	_ = s.Refresh(ctx)
	return moved, nil
}

// MarkResult is a prepared batch and the outcome of its remote write. A write
// error does not undo the local change.
type MarkResult struct {
	mutation.Batch
	WriteErr error
}

// MarkEngageBatch moves leads to engaged. With no ids it uses the current effective engage batch.
func (s *Session) MarkEngageBatch(ctx context.Context, ids []domain.LeadID) (MarkResult, error) {
	return s.markBatch(ctx, ids, domain.StageEngaged, func(leads []domain.Lead, _ time.Time) []domain.Lead {
		return s.snapshot.Effective(leads)
	})
}

// MarkDMBatch moves leads to dmed. With no ids it uses the current DM batch.
func (s *Session) MarkDMBatch(ctx context.Context, ids []domain.LeadID) (MarkResult, error) {
	return s.markBatch(ctx, ids, domain.StageDmed, batching.EligibleForDM)
}

func (s *Session) markBatch(ctx context.Context, ids []domain.LeadID, stage domain.Stage, current func([]domain.Lead, time.Time) []domain.Lead) (MarkResult, error) {
	s.mu.Lock()
	if len(ids) == 0 {
		for _, l := range current(s.state.Local(), s.deps.Tracker.Now(s.deps.Now())) {
			ids = append(ids, l.ID)
		}
	}
	batch, err := s.mutator.Prepare(s.state, ids, stage, domain.StampFor(stage))
	s.mu.Unlock()

	switch {
	case errors.Is(err, mutation.ErrEmptyBatch):
		return MarkResult{}, apperr.Validation("nothing to mark")
	case err != nil:
		return MarkResult{}, apperr.Validation(err.Error())
	}

	writeErr := s.mutator.Write(ctx, batch)

	s.mu.Lock()
	s.lastWriteErr = writeErr
	s.mu.Unlock()

	if writeErr == nil && s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.LeadsBatchUpdated{
			BaseEvent: events.NewBaseEventAt(batch.At),
			SessionID: s.id,
			LeadIDs:   batch.IDs,
			Stage:     stage,
		})
	}
	return MarkResult{Batch: batch, WriteErr: writeErr}, nil
}

func (s *Session) batchWriteFailed(ctx context.Context, batch mutation.Batch, err error) {
	s.notify(sse.Event{Type: sse.EventBatchWriteFailed, Message: err.Error(), Data: batch.IDs})
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ctx, events.LeadBatchWriteFailed{
			BaseEvent: events.NewBaseEventAt(batch.At),
			SessionID: s.id,
			LeadIDs:   batch.IDs,
			Stage:     batch.Stage,
			Error:     err.Error(),
		})
	}
}

// ToggleRun starts a paced run over the current batch, or cancels it when active.
func (s *Session) ToggleRun(kind RunKind) (RunStatus, error) {
	sched := s.scheduler(kind)
	targets := s.targets(kind)

	_, err := sched.Toggle(targets, func(t Target) {
		s.notify(sse.Event{Type: sse.EventOpenTarget, LeadID: int64(t.LeadID), Message: t.URL, Data: t})
	})
	if errors.Is(err, pacing.ErrNoTargets) {
		return RunStatus{}, apperr.Validation(fmt.Sprintf("%s batch is empty", kind))
	}
	if err != nil {
		return RunStatus{}, err
	}
	return RunStatus{Kind: kind, Progress: sched.Progress(), Interval: sched.Interval()}, nil
}

// CancelRun stops a paced run. Progress keeps its last value.
func (s *Session) CancelRun(kind RunKind) RunStatus {
	sched := s.scheduler(kind)
	sched.Cancel()
	return RunStatus{Kind: kind, Progress: sched.Progress(), Interval: sched.Interval()}
}

// Runs returns both runs' status.
func (s *Session) Runs() []RunStatus {
	return []RunStatus{
		{Kind: RunEngage, Progress: s.engage.Progress(), Interval: s.engage.Interval()},
		{Kind: RunDM, Progress: s.dm.Progress(), Interval: s.dm.Interval()},
	}
}

// Close cancels both runs.
func (s *Session) Close() {
	s.engage.Cancel()
	s.dm.Cancel()
}

func (s *Session) scheduler(kind RunKind) *pacing.Scheduler[Target] {
	if kind == RunDM {
		return s.dm
	}
	return s.engage
}

func (s *Session) targets(kind RunKind) []Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads := s.state.Local()
	var batch []domain.Lead
	if kind == RunDM {
		batch = batching.EligibleForDM(leads, s.deps.Tracker.Now(s.deps.Now()))
	} else {
		batch = s.snapshot.Effective(leads)
	}

	targets := make([]Target, len(batch))
	for i, l := range batch {
		targets[i] = Target{LeadID: l.ID, Handle: l.InstagramHandle, URL: l.ProfileURL()}
	}
	return targets
}

func (s *Session) notify(event sse.Event) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Publish(s.id, event)
	}
}
