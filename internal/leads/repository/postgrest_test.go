package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
)

type storeConfig struct {
	url string
}

func (c storeConfig) GetLeadStoreKind() string           { return "postgrest" }
func (c storeConfig) GetSupabaseURL() string             { return c.url }
func (c storeConfig) GetSupabaseKey() string             { return "anon-key" }
func (c storeConfig) GetLeadStoreRowCap() int            { return 1000 }
func (c storeConfig) GetLeadStoreTimeout() time.Duration { return time.Second }

type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*PostgRESTStore, *[]recordedRequest) {
	t.Helper()
	var calls []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  map[string]string{},
			header: r.Header.Clone(),
		}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		calls = append(calls, rec)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewPostgRESTStore(storeConfig{url: srv.URL + "/"}), &calls
}

func TestListLeadsRequestsOrderedCappedFetch(t *testing.T) {
	body := `[
		{"id": 2, "instagram_handle": "coach.a", "score": 9, "status": "engaged", "engaged_at": "2026-06-01T10:00:00+00:00", "dm_draft": null},
		{"id": 5, "instagram_handle": "coach.b", "score": 4, "status": null, "full_name": "Bea Smith", "likely_us": true}
	]`
	store, calls := newTestServer(t, http.StatusOK, body)

	leads, err := store.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one request, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.method != http.MethodGet || call.path != "/rest/v1/instagram_leads" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	if call.query["order"] != "score.desc,id.asc" || call.query["limit"] != "1000" || call.query["select"] != "*" {
		t.Fatalf("unexpected query %v", call.query)
	}
	if call.header.Get("apikey") != "anon-key" || call.header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("missing auth headers %v", call.header)
	}

	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].Stage != domain.StageEngaged || leads[0].EngagedAt == nil {
		t.Fatalf("unexpected first lead %+v", leads[0])
	}
	if leads[1].Stage != domain.StageNew || leads[1].FullName != "Bea Smith" || !leads[1].LikelyUS {
		t.Fatalf("unexpected second lead %+v", leads[1])
	}
}

func TestListLeadsRejectsUnknownStatus(t *testing.T) {
	store, _ := newTestServer(t, http.StatusOK, `[{"id": 1, "instagram_handle": "x", "status": "won"}]`)
	if _, err := store.ListLeads(context.Background()); !errors.Is(err, domain.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestPatchLeadsIssuesOneRequestForTheWholeSet(t *testing.T) {
	store, calls := newTestServer(t, http.StatusNoContent, "")
	at := time.Date(2026, 6, 2, 8, 30, 0, 0, time.UTC)

	err := store.PatchLeads(context.Background(), []domain.LeadID{1, 2, 3}, domain.StagePatch(domain.StageEngaged, domain.StampEngagedAt, at))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.method != http.MethodPatch || call.query["id"] != "in.(1,2,3)" {
		t.Fatalf("unexpected request %s %v", call.method, call.query)
	}
	if call.header.Get("Prefer") != "return=minimal" || call.header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected headers %v", call.header)
	}
	if call.body["status"] != "engaged" || call.body["engaged_at"] != "2026-06-02T08:30:00Z" {
		t.Fatalf("unexpected body %v", call.body)
	}
	if _, ok := call.body["dmed_at"]; ok {
		t.Fatal("dmed_at must not be sent")
	}
}

func TestPatchLeadsWithoutIDsSkipsRequest(t *testing.T) {
	store, calls := newTestServer(t, http.StatusNoContent, "")
	if err := store.PatchLeads(context.Background(), nil, domain.DraftPatch("hi")); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no requests, got %d", len(*calls))
	}
}

func TestPatchLeadNotFound(t *testing.T) {
	store, calls := newTestServer(t, http.StatusOK, `[]`)
	err := store.PatchLead(context.Background(), 42, domain.DraftPatch("hey there"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	call := (*calls)[0]
	if call.query["id"] != "eq.42" || call.header.Get("Prefer") != "return=representation" {
		t.Fatalf("unexpected request %v %v", call.query, call.header)
	}
	if call.body["dm_draft"] != "hey there" {
		t.Fatalf("unexpected body %v", call.body)
	}
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	store, _ := newTestServer(t, http.StatusServiceUnavailable, "upstream down\n")
	_, err := store.ListLeads(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || !strings.HasPrefix(err.Error(), "lead store 503: upstream down") {
		t.Fatalf("unexpected error %q", err.Error())
	}
}

func TestPingReadsOneRow(t *testing.T) {
	store, calls := newTestServer(t, http.StatusOK, `[{"id":1}]`)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	got := (*calls)[0]
	if got.method != http.MethodGet || got.query["limit"] != "1" || got.query["select"] != "id" {
		t.Fatalf("unexpected ping request %+v", got)
	}
}

func TestPatchRejectsUnknownStageBeforeSending(t *testing.T) {
	store, calls := newTestServer(t, http.StatusNoContent, "")
	bad := domain.Stage("won")
	err := store.PatchLeads(context.Background(), []domain.LeadID{1}, domain.Patch{Stage: &bad})
	if !errors.Is(err, domain.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatal("invalid patch must not reach the store")
	}
}

func TestBuildSetClauseOrdersColumns(t *testing.T) {
	at := time.Date(2026, 6, 2, 8, 30, 0, 0, time.FixedZone("x", 3600))
	set, args := buildSetClause(domain.StagePatch(domain.StageDmed, domain.StampDmedAt, at))
	if set != "dmed_at = $1, status = $2" {
		t.Fatalf("unexpected set clause %q", set)
	}
	if len(args) != 2 || args[1] != "dmed" {
		t.Fatalf("unexpected args %v", args)
	}
	if ts, ok := args[0].(time.Time); !ok || ts.Location() != time.UTC || !ts.Equal(at) {
		t.Fatalf("expected UTC timestamp, got %v", args[0])
	}
}
