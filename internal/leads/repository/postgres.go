package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"outreach_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `
	id, instagram_handle, full_name, bio, follower_count, following_count, post_count,
	website, is_business_account, business_category, is_verified, likely_us, score, status,
	followed_at, engaged_at, dmed_at, follow_up_at, notes, dm_draft, scraped_at, created_at`

// PostgresStore reads and patches instagram_leads over a direct database connection.
type PostgresStore struct {
	pool   *pgxpool.Pool
	rowCap int
}

// NewPostgresStore creates a pgx-backed lead store.
func NewPostgresStore(pool *pgxpool.Pool, rowCap int) *PostgresStore {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}
	return &PostgresStore{pool: pool, rowCap: rowCap}
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM instagram_leads
		ORDER BY score DESC, id ASC
		LIMIT $1
	`, s.rowCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var row leadRow
		if err := rows.Scan(
			&row.ID, &row.InstagramHandle, &row.FullName, &row.Bio, &row.FollowerCount, &row.FollowingCount, &row.PostCount,
			&row.Website, &row.IsBusinessAccount, &row.BusinessCategory, &row.IsVerified, &row.LikelyUS, &row.Score, &row.Status,
			&row.FollowedAt, &row.EngagedAt, &row.DmedAt, &row.FollowUpAt, &row.Notes, &row.DMDraft, &row.ScrapedAt, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		lead, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("lead %d: %w", row.ID, err)
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (s *PostgresStore) PatchLead(ctx context.Context, id domain.LeadID, patch domain.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	set, args := buildSetClause(patch)
	if set == "" {
		return nil
	}
	args = append(args, int64(id))

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE instagram_leads SET %s WHERE id = $%d`, set, len(args)), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PatchLeads(ctx context.Context, ids []domain.LeadID, patch domain.Patch) error {
	if len(ids) == 0 {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	set, args := buildSetClause(patch)
	if set == "" {
		return nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	args = append(args, raw)

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE instagram_leads SET %s WHERE id = ANY($%d)`, set, len(args)), args...)
	return err
}

// buildSetClause renders the patch as "col = $1, col = $2" with columns in a fixed order.
func buildSetClause(patch domain.Patch) (string, []any) {
	cols := patchColumns(patch)
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s = $%d", name, i+1)
		args[i] = cols[name]
	}
	return strings.Join(parts, ", "), args
}

// ImportRow is one scraped lead to upsert by handle.
type ImportRow struct {
	InstagramHandle   string
	FullName          string
	Bio               string
	FollowerCount     int
	FollowingCount    int
	PostCount         int
	Website           string
	IsBusinessAccount bool
	BusinessCategory  string
	IsVerified        bool
	LikelyUS          bool
	Score             int
}

// UpsertLeads inserts new handles and refreshes profile fields of existing ones.
// Pipeline fields (status, timestamps, drafts) of existing rows are left alone.
func (s *PostgresStore) UpsertLeads(ctx context.Context, rows []ImportRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO instagram_leads (
				instagram_handle, full_name, bio, follower_count, following_count, post_count,
				website, is_business_account, business_category, is_verified, likely_us, score, scraped_at
			) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11, $12, now())
			ON CONFLICT (instagram_handle) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				bio = EXCLUDED.bio,
				follower_count = EXCLUDED.follower_count,
				following_count = EXCLUDED.following_count,
				post_count = EXCLUDED.post_count,
				website = EXCLUDED.website,
				is_business_account = EXCLUDED.is_business_account,
				business_category = EXCLUDED.business_category,
				is_verified = EXCLUDED.is_verified,
				likely_us = EXCLUDED.likely_us,
				score = EXCLUDED.score,
				scraped_at = EXCLUDED.scraped_at
		`, r.InstagramHandle, r.FullName, r.Bio, r.FollowerCount, r.FollowingCount, r.PostCount,
			r.Website, r.IsBusinessAccount, r.BusinessCategory, r.IsVerified, r.LikelyUS, r.Score)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			return written, err
		}
		written += int(tag.RowsAffected())
	}
	return written, nil
}
