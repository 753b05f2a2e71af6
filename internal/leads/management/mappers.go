package management

import (
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/session"
	"outreach_backend/internal/leads/transport"
)

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                int64(lead.ID),
		InstagramHandle:   lead.InstagramHandle,
		FullName:          lead.FullName,
		Bio:               lead.Bio,
		FollowerCount:     lead.FollowerCount,
		FollowingCount:    lead.FollowingCount,
		PostCount:         lead.PostCount,
		Website:           lead.Website,
		IsBusinessAccount: lead.IsBusinessAccount,
		BusinessCategory:  lead.BusinessCategory,
		IsVerified:        lead.IsVerified,
		LikelyUS:          lead.LikelyUS,
		Score:             lead.Score,
		Stage:             string(lead.Stage),
		ProfileURL:        lead.ProfileURL(),
		FollowedAt:        lead.FollowedAt,
		EngagedAt:         lead.EngagedAt,
		DmedAt:            lead.DmedAt,
		FollowUpAt:        lead.FollowUpAt,
		Notes:             lead.Notes,
		DMDraft:           lead.DMDraft,
		CreatedAt:         lead.CreatedAt,
	}
}

func toLeadResponses(leads []domain.Lead) []transport.LeadResponse {
	out := make([]transport.LeadResponse, len(leads))
	for i, l := range leads {
		out[i] = toLeadResponse(l)
	}
	return out
}

func toRunResponse(status session.RunStatus) transport.RunResponse {
	return transport.RunResponse{
		Kind:            string(status.Kind),
		Opened:          status.Progress.Opened,
		Total:           status.Progress.Total,
		Running:         status.Progress.Running,
		IntervalSeconds: int(status.Interval.Seconds()),
	}
}

func toRunResponses(runs []session.RunStatus) []transport.RunResponse {
	out := make([]transport.RunResponse, len(runs))
	for i, r := range runs {
		out[i] = toRunResponse(r)
	}
	return out
}

func toBoardResponse(board session.Board) transport.BoardResponse {
	resp := transport.BoardResponse{
		SessionID:   board.SessionID.String(),
		GeneratedAt: board.GeneratedAt,
		Counts: transport.CountsResponse{
			EngagedToday:   board.Counts.EngagedToday,
			DmedToday:      board.Counts.DmedToday,
			Limit:          board.Counts.Limit,
			RemainingQuota: board.Counts.RemainingQuota,
			LimitReached:   board.Counts.LimitReached,
			Progress:       board.Counts.Progress,
		},
		EngageBatch:      toLeadResponses(board.EngageBatch),
		DMBatch:          toLeadResponses(board.DMBatch),
		ReadyCount:       board.ReadyCount,
		Runs:             toRunResponses(board.Runs),
		Loaded:           board.Loaded,
		SnapshotTakenAt:  board.SnapshotTakenAt,
		SnapshotSize:     board.SnapshotSize,
		Diverged:         board.Diverged,
		LastRefreshError: board.LastRefreshError,
		LastWriteError:   board.LastWriteError,
	}
	if !board.RefreshedAt.IsZero() {
		refreshedAt := board.RefreshedAt
		resp.RefreshedAt = &refreshedAt
	}
	return resp
}

func toMarkBatchResponse(res session.MarkResult) transport.MarkBatchResponse {
	ids := make([]int64, len(res.IDs))
	for i, id := range res.IDs {
		ids[i] = int64(id)
	}
	resp := transport.MarkBatchResponse{
		LeadIDs: ids,
		Matched: len(res.Matched),
		Stage:   string(res.Stage),
		At:      res.At,
	}
	if res.WriteErr != nil {
		resp.WriteError = res.WriteErr.Error()
	}
	return resp
}

func toLeadIDs(raw []int64) []domain.LeadID {
	ids := make([]domain.LeadID, len(raw))
	for i, id := range raw {
		ids[i] = domain.LeadID(id)
	}
	return ids
}
