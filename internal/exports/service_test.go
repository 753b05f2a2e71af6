package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/session"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeBoards struct {
	board session.Board
	err   error
}

func (f fakeBoards) SessionBoard(context.Context, uuid.UUID) (session.Board, error) {
	return f.board, f.err
}

type fakeStorage struct {
	uploaded  []byte
	folder    string
	uploadErr error
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploaded = data
	f.folder = folder
	return folder + "/" + fileName, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }

func testBoard() session.Board {
	engagedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	draft := "Hey Jo, loved your last reel"
	return session.Board{
		GeneratedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EngageBatch: []domain.Lead{
			{ID: 1, InstagramHandle: "coach.jo", FullName: "Jo, Coach", Score: 9, Stage: domain.StageNew},
			{ID: 2, InstagramHandle: "@fit.sam", Score: 7, Stage: domain.StageNew},
		},
		DMBatch: []domain.Lead{
			{ID: 3, InstagramHandle: "yoga.lee", Score: 8, Stage: domain.StageEngaged, EngagedAt: &engagedAt, DMDraft: &draft},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	data, rows, err := RenderCSV(testBoard())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 rows, got %d", rows)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("csv output should parse: %v", err)
	}
	if len(records) != 4 || records[0][0] != "batch" {
		t.Fatalf("unexpected records %v", records)
	}
	if records[1][3] != "Jo, Coach" {
		t.Fatalf("comma in name must survive quoting, got %q", records[1][3])
	}
	if records[2][6] != "https://instagram.com/fit.sam" {
		t.Fatalf("unexpected profile url %q", records[2][6])
	}
	dm := records[3]
	if dm[0] != BatchDM || dm[8] != "2026-03-01T10:00:00Z" || !strings.HasPrefix(dm[9], "Hey Jo") {
		t.Fatalf("unexpected dm row %v", dm)
	}
}

func TestExportUploadsAndSigns(t *testing.T) {
	store := &fakeStorage{}
	svc := NewService(fakeBoards{board: testBoard()}, store, "exports")

	result, err := svc.Export(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if store.folder != "outreach/2026-03-02" {
		t.Fatalf("unexpected folder %q", store.folder)
	}
	if result.Rows != 3 || !strings.HasPrefix(result.URL, "https://minio.local/exports/outreach/2026-03-02/") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExportUploadFailure(t *testing.T) {
	svc := NewService(fakeBoards{board: testBoard()}, &fakeStorage{uploadErr: errors.New("dial tcp")}, "exports")
	if _, err := svc.Export(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestHandlerWithoutStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/export", func(c *gin.Context) {
		c.Set(httpkit.ContextSessionIDKey, uuid.New())
		c.Next()
	}, NewHandler(nil).HandleExport)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
