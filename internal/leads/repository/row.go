package repository

import (
	"time"

	"outreach_backend/internal/leads/domain"
)

// leadRow is the instagram_leads row as the REST API returns it.
type leadRow struct {
	ID                int64      `json:"id"`
	InstagramHandle   string     `json:"instagram_handle"`
	FullName          *string    `json:"full_name"`
	Bio               *string    `json:"bio"`
	FollowerCount     *int       `json:"follower_count"`
	FollowingCount    *int       `json:"following_count"`
	PostCount         *int       `json:"post_count"`
	Website           *string    `json:"website"`
	IsBusinessAccount *bool      `json:"is_business_account"`
	BusinessCategory  *string    `json:"business_category"`
	IsVerified        *bool      `json:"is_verified"`
	LikelyUS          *bool      `json:"likely_us"`
	Score             *int       `json:"score"`
	Status            *string    `json:"status"`
	FollowedAt        *time.Time `json:"followed_at"`
	EngagedAt         *time.Time `json:"engaged_at"`
	DmedAt            *time.Time `json:"dmed_at"`
	FollowUpAt        *time.Time `json:"follow_up_at"`
	Notes             *string    `json:"notes"`
	DMDraft           *string    `json:"dm_draft"`
	ScrapedAt         *time.Time `json:"scraped_at"`
	CreatedAt         *time.Time `json:"created_at"`
}

func (r leadRow) toDomain() (domain.Lead, error) {
	stage, err := domain.ParseStage(deref(r.Status))
	if err != nil {
		return domain.Lead{}, err
	}
	lead := domain.Lead{
		ID:                domain.LeadID(r.ID),
		InstagramHandle:   r.InstagramHandle,
		FullName:          deref(r.FullName),
		Bio:               deref(r.Bio),
		FollowerCount:     deref(r.FollowerCount),
		FollowingCount:    deref(r.FollowingCount),
		PostCount:         deref(r.PostCount),
		Website:           deref(r.Website),
		IsBusinessAccount: deref(r.IsBusinessAccount),
		BusinessCategory:  deref(r.BusinessCategory),
		IsVerified:        deref(r.IsVerified),
		LikelyUS:          deref(r.LikelyUS),
		Score:             deref(r.Score),
		Stage:             stage,
		FollowedAt:        r.FollowedAt,
		EngagedAt:         r.EngagedAt,
		DmedAt:            r.DmedAt,
		FollowUpAt:        r.FollowUpAt,
		Notes:             deref(r.Notes),
		DMDraft:           r.DMDraft,
		ScrapedAt:         r.ScrapedAt,
	}
	if r.CreatedAt != nil {
		lead.CreatedAt = *r.CreatedAt
	}
	return lead, nil
}

// patchColumns maps a patch onto store column names.
func patchColumns(p domain.Patch) map[string]any {
	cols := make(map[string]any, 4)
	if p.Stage != nil {
		cols["status"] = string(*p.Stage)
	}
	if p.EngagedAt != nil {
		cols["engaged_at"] = p.EngagedAt.UTC()
	}
	if p.DmedAt != nil {
		cols["dmed_at"] = p.DmedAt.UTC()
	}
	if p.DMDraft != nil {
		cols["dm_draft"] = *p.DMDraft
	}
	return cols
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
