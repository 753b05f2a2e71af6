package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/logger"
)

var ErrEmptyBatch = errors.New("batch has no lead ids")

// Writer is the remote side of a batch: one call for the whole id set.
type Writer interface {
	PatchLeads(ctx context.Context, ids []domain.LeadID, patch domain.Patch) error
}

// FailureFunc is notified when a remote batch write fails. Local state is not rolled back.
type FailureFunc func(ctx context.Context, batch Batch, err error)

// Batch is one stage change prepared for a set of leads.
type Batch struct {
	IDs     []domain.LeadID
	Matched []domain.LeadID
	Stage   domain.Stage
	Field   domain.StampField
	At      time.Time
	Patch   domain.Patch
}

// Mutator prepares batches against local state and writes them to the store.
type Mutator struct {
	store     Writer
	log       *logger.Logger
	now       func() time.Time
	onFailure FailureFunc
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Mutator) { m.now = now }
}

// OnFailure registers a callback for failed remote writes.
func OnFailure(fn FailureFunc) Option {
	return func(m *Mutator) { m.onFailure = fn }
}

// NewMutator creates a mutator writing through store.
func NewMutator(store Writer, log *logger.Logger, opts ...Option) *Mutator {
	m := &Mutator{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prepare validates the change, stamps a single timestamp for the whole batch and
// applies it to state.Local before anything is written remotely.
func (m *Mutator) Prepare(state *State, ids []domain.LeadID, stage domain.Stage, field domain.StampField) (Batch, error) {
	if !domain.IsKnownPipelineStage(string(stage)) {
		return Batch{}, fmt.Errorf("%w: %q", domain.ErrUnknownStage, stage)
	}
	switch field {
	case domain.StampNone, domain.StampEngagedAt, domain.StampDmedAt:
	default:
		return Batch{}, fmt.Errorf("unknown timestamp field %q", field)
	}

	unique := dedupe(ids)
	if len(unique) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	at := m.now()
	patch := domain.StagePatch(stage, field, at)
	matched := state.Apply(unique, patch)

	return Batch{
		IDs:     unique,
		Matched: matched,
		Stage:   stage,
		Field:   field,
		At:      at,
		Patch:   patch,
	}, nil
}

// Write issues the single remote patch for the batch. On failure the error is
// logged and passed to the failure callback; the optimistic local state stays.
func (m *Mutator) Write(ctx context.Context, batch Batch) error {
	err := m.store.PatchLeads(ctx, batch.IDs, batch.Patch)
	if err == nil {
		return nil
	}

	raw := make([]int64, len(batch.IDs))
	for i, id := range batch.IDs {
		raw[i] = int64(id)
	}
	m.log.WithContext(ctx).BatchWriteFailed(raw, string(batch.Stage), err)
	if m.onFailure != nil {
		m.onFailure(ctx, batch, err)
	}
	return err
}

// ApplyBatch runs Prepare then Write. Callers that share state across goroutines
// should call Prepare under their lock and Write outside it.
func (m *Mutator) ApplyBatch(ctx context.Context, state *State, ids []domain.LeadID, stage domain.Stage, field domain.StampField) (Batch, error) {
	batch, err := m.Prepare(state, ids, stage, field)
	if err != nil {
		return Batch{}, err
	}
	return batch, m.Write(ctx, batch)
}

func dedupe(ids []domain.LeadID) []domain.LeadID {
	seen := make(map[domain.LeadID]struct{}, len(ids))
	out := make([]domain.LeadID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
