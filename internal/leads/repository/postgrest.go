package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/config"
)

const leadsTable = "instagram_leads"

// PostgRESTStore talks to the Supabase REST endpoint for instagram_leads.
type PostgRESTStore struct {
	baseURL string
	apiKey  string
	rowCap  int
	http    *http.Client
}

// NewPostgRESTStore creates a REST-backed lead store.
func NewPostgRESTStore(cfg config.StoreConfig) *PostgRESTStore {
	timeout := cfg.GetLeadStoreTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rowCap := cfg.GetLeadStoreRowCap()
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}
	return &PostgRESTStore{
		baseURL: strings.TrimRight(cfg.GetSupabaseURL(), "/") + "/rest/v1/",
		apiKey:  cfg.GetSupabaseKey(),
		rowCap:  rowCap,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListLeads fetches every lead ordered by score, bounded by the row cap.
func (s *PostgRESTStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "score.desc,id.asc")
	query.Set("limit", strconv.Itoa(s.rowCap))

	var rows []leadRow
	if err := s.do(ctx, http.MethodGet, query, nil, "", &rows); err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("lead %d: %w", row.ID, err)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// Ping checks that the REST endpoint answers with a one-row read.
func (s *PostgRESTStore) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("limit", "1")
	var rows []struct {
		ID int64 `json:"id"`
	}
	return s.do(ctx, http.MethodGet, query, nil, "", &rows)
}

// PatchLead updates one lead. It returns ErrNotFound when no row matched.
func (s *PostgRESTStore) PatchLead(ctx context.Context, id domain.LeadID, patch domain.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	query := url.Values{}
	query.Set("id", fmt.Sprintf("eq.%d", id))
	query.Set("select", "id")

	var updated []struct {
		ID int64 `json:"id"`
	}
	if err := s.do(ctx, http.MethodPatch, query, patchColumns(patch), "return=representation", &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

// PatchLeads updates every lead in ids with a single request.
func (s *PostgRESTStore) PatchLeads(ctx context.Context, ids []domain.LeadID, patch domain.Patch) error {
	if len(ids) == 0 {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	query := url.Values{}
	query.Set("id", "in.("+joinIDs(ids)+")")

	return s.do(ctx, http.MethodPatch, query, patchColumns(patch), "return=minimal", nil)
}

func (s *PostgRESTStore) do(ctx context.Context, method string, query url.Values, body any, prefer string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal lead patch: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := s.baseURL + leadsTable + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("lead store request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode lead store response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx answer from the lead store.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lead store %d: %s", e.StatusCode, e.Body)
}

func joinIDs(ids []domain.LeadID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}
