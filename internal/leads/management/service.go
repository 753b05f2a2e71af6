// Package management serves the outreach board and pipeline operations of an
// unlocked session to the HTTP layer.
package management

import (
	"context"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/session"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// Sessions resolves an unlocked session.
type Sessions interface {
	Get(id uuid.UUID) (*session.Session, error)
}

// DraftRequester queues a draft sweep for the operator's current day.
type DraftRequester interface {
	RequestDraftSweep(ctx context.Context, limit int, regenerate bool) (string, error)
}

// Service handles board and pipeline operations.
type Service struct {
	sessions Sessions
	drafts   DraftRequester
}

// New creates a new management service.
func New(sessions Sessions) *Service {
	return &Service{sessions: sessions}
}

// SetDraftRequester enables operator-triggered draft sweeps.
func (s *Service) SetDraftRequester(drafts DraftRequester) {
	s.drafts = drafts
}

// loaded returns the session after its first refresh was attempted. A failed
// first refresh is not an error here: the board reports it.
func (s *Service) loaded(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	_ = sess.EnsureLoaded(ctx)
	return sess, nil
}

// SessionBoard returns the raw board for other modules.
func (s *Service) SessionBoard(ctx context.Context, sessionID uuid.UUID) (session.Board, error) {
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return session.Board{}, err
	}
	return sess.Board(), nil
}

// Board returns every derived view for the dashboard.
func (s *Service) Board(ctx context.Context, sessionID uuid.UUID) (transport.BoardResponse, error) {
	board, err := s.SessionBoard(ctx, sessionID)
	if err != nil {
		return transport.BoardResponse{}, err
	}
	return toBoardResponse(board), nil
}

// Refresh re-fetches the lead list and returns the new board.
func (s *Service) Refresh(ctx context.Context, sessionID uuid.UUID) (transport.BoardResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return transport.BoardResponse{}, err
	}
	if err := sess.Refresh(ctx); err != nil {
		return transport.BoardResponse{}, err
	}
	return toBoardResponse(sess.Board()), nil
}

// List returns the filtered pipeline list.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	filter := session.Filter{Search: req.Search, SortBy: req.SortBy}
	if req.Stage != "" {
		stage, err := domain.ParseStage(req.Stage)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation(err.Error())
		}
		filter.Stage = &stage
	}

	leads := sess.Leads(filter)
	return transport.LeadListResponse{Items: toLeadResponses(leads), Total: len(leads)}, nil
}

// ChangeStage moves one lead.
func (s *Service) ChangeStage(ctx context.Context, sessionID uuid.UUID, id int64, req transport.ChangeStageRequest) (transport.LeadResponse, error) {
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	stage, err := domain.ParseStage(req.Stage)
	if err != nil {
		return transport.LeadResponse{}, apperr.Validation(err.Error())
	}

	lead, err := sess.ChangeStage(ctx, domain.LeadID(id), stage)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// MarkEngageBatch marks the given leads, or the current engage batch, as engaged.
func (s *Service) MarkEngageBatch(ctx context.Context, sessionID uuid.UUID, req transport.MarkBatchRequest) (transport.MarkBatchResponse, error) {
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return transport.MarkBatchResponse{}, err
	}
	res, err := sess.MarkEngageBatch(ctx, toLeadIDs(req.LeadIDs))
	if err != nil {
		return transport.MarkBatchResponse{}, err
	}
	return toMarkBatchResponse(res), nil
}

// MarkDMBatch marks the given leads, or the current DM batch, as dmed.
func (s *Service) MarkDMBatch(ctx context.Context, sessionID uuid.UUID, req transport.MarkBatchRequest) (transport.MarkBatchResponse, error) {
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return transport.MarkBatchResponse{}, err
	}
	res, err := sess.MarkDMBatch(ctx, toLeadIDs(req.LeadIDs))
	if err != nil {
		return transport.MarkBatchResponse{}, err
	}
	return toMarkBatchResponse(res), nil
}

// ToggleRun starts or cancels a paced run.
func (s *Service) ToggleRun(ctx context.Context, sessionID uuid.UUID, rawKind string) (transport.RunResponse, error) {
	kind, err := session.ParseRunKind(rawKind)
	if err != nil {
		return transport.RunResponse{}, err
	}
	sess, err := s.loaded(ctx, sessionID)
	if err != nil {
		return transport.RunResponse{}, err
	}
	status, err := sess.ToggleRun(kind)
	if err != nil {
		return transport.RunResponse{}, err
	}
	return toRunResponse(status), nil
}

// CancelRun stops a paced run.
func (s *Service) CancelRun(sessionID uuid.UUID, rawKind string) (transport.RunResponse, error) {
	kind, err := session.ParseRunKind(rawKind)
	if err != nil {
		return transport.RunResponse{}, err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return transport.RunResponse{}, err
	}
	return toRunResponse(sess.CancelRun(kind)), nil
}

// Runs returns both runs.
func (s *Service) Runs(sessionID uuid.UUID) (transport.RunsResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return transport.RunsResponse{}, err
	}
	return transport.RunsResponse{Runs: toRunResponses(sess.Runs())}, nil
}

// RequestDraftSweep queues a DM draft sweep on the background worker.
func (s *Service) RequestDraftSweep(ctx context.Context, sessionID uuid.UUID, req transport.DraftSweepRequest) (transport.DraftSweepResponse, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return transport.DraftSweepResponse{}, err
	}
	if s.drafts == nil {
		return transport.DraftSweepResponse{}, apperr.Unavailable("draft generation is not configured", nil)
	}
	day, err := s.drafts.RequestDraftSweep(ctx, req.Limit, req.Regenerate)
	if err != nil {
		return transport.DraftSweepResponse{}, apperr.Unavailable("failed to queue draft sweep", err).WithOp("management.RequestDraftSweep")
	}
	return transport.DraftSweepResponse{Day: day, Limit: req.Limit, Regenerate: req.Regenerate, Queued: true}, nil
}
