// Package exports renders a session's current batches as CSV and hands out a
// presigned download link from object storage.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/session"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	contentTypeCSV = "text/csv"
	dateLayout     = "2006-01-02"
	timeLayout     = time.RFC3339
)

// Batch names used in the first CSV column.
const (
	BatchEngage = "engage"
	BatchDM     = "dm"
)

var csvHeader = []string{
	"batch", "id", "instagram_handle", "full_name", "score", "stage",
	"profile_url", "follower_count", "engaged_at", "dm_draft",
}

// BoardReader exposes a session's derived views.
type BoardReader interface {
	SessionBoard(ctx context.Context, sessionID uuid.UUID) (session.Board, error)
}

// Result is a finished export.
type Result struct {
	FileKey   string    `json:"fileKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

// Service uploads batch exports.
type Service struct {
	boards  BoardReader
	storage storage.StorageService
	bucket  string
}

// NewService creates an export service writing into bucket.
func NewService(boards BoardReader, store storage.StorageService, bucket string) *Service {
	return &Service{boards: boards, storage: store, bucket: bucket}
}

// Export renders the session's effective engage batch and DM batch and uploads them.
func (s *Service) Export(ctx context.Context, sessionID uuid.UUID) (Result, error) {
	board, err := s.boards.SessionBoard(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	data, rows, err := RenderCSV(board)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to render export", err)
	}

	folder := "outreach/" + board.GeneratedAt.Format(dateLayout)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, "batches.csv", contentTypeCSV, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, apperr.Unavailable("failed to upload export", err).WithOp("exports.Export")
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.bucket, fileKey)
	if err != nil {
		return Result{}, apperr.Unavailable("failed to sign export url", err).WithOp("exports.Export")
	}

	return Result{FileKey: fileKey, URL: presigned.URL, ExpiresAt: presigned.ExpiresAt, Rows: rows}, nil
}

// RenderCSV writes the engage batch followed by the DM batch and returns the row count without the header.
func RenderCSV(board session.Board) ([]byte, int, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, 0, err
	}

	rows := 0
	for _, part := range []struct {
		name  string
		leads []domain.Lead
	}{
		{name: BatchEngage, leads: board.EngageBatch},
		{name: BatchDM, leads: board.DMBatch},
	} {
		for _, lead := range part.leads {
			if err := writer.Write(leadRecord(part.name, lead)); err != nil {
				return nil, 0, err
			}
			rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

func leadRecord(batch string, lead domain.Lead) []string {
	engagedAt := ""
	if lead.EngagedAt != nil {
		engagedAt = lead.EngagedAt.UTC().Format(timeLayout)
	}
	draft := ""
	if lead.DMDraft != nil {
		draft = *lead.DMDraft
	}
	return []string{
		batch,
		strconv.FormatInt(int64(lead.ID), 10),
		lead.InstagramHandle,
		lead.FullName,
		strconv.Itoa(lead.Score),
		string(lead.Stage),
		lead.ProfileURL(),
		strconv.Itoa(lead.FollowerCount),
		engagedAt,
		draft,
	}
}
