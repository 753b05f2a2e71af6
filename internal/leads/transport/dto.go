package transport

import "time"

// Request DTOs
type ChangeStageRequest struct {
	Stage string `json:"stage" validate:"required,pipeline_stage"`
}

type MarkBatchRequest struct {
	// LeadIDs defaults to the current batch when empty.
	LeadIDs []int64 `json:"leadIds" validate:"omitempty,max=500,dive,gt=0"`
}

type ListLeadsRequest struct {
	Stage  string `form:"stage" validate:"omitempty,pipeline_stage"`
	Search string `form:"search" validate:"max=100"`
	SortBy string `form:"sortBy" validate:"omitempty,oneof=score followers recent"`
}

// Response DTOs
type LeadResponse struct {
	ID                int64      `json:"id"`
	InstagramHandle   string     `json:"instagramHandle"`
	FullName          string     `json:"fullName,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	FollowerCount     int        `json:"followerCount"`
	FollowingCount    int        `json:"followingCount"`
	PostCount         int        `json:"postCount"`
	Website           string     `json:"website,omitempty"`
	IsBusinessAccount bool       `json:"isBusinessAccount"`
	BusinessCategory  string     `json:"businessCategory,omitempty"`
	IsVerified        bool       `json:"isVerified"`
	LikelyUS          bool       `json:"likelyUs"`
	Score             int        `json:"score"`
	Stage             string     `json:"stage"`
	ProfileURL        string     `json:"profileUrl"`
	FollowedAt        *time.Time `json:"followedAt,omitempty"`
	EngagedAt         *time.Time `json:"engagedAt,omitempty"`
	DmedAt            *time.Time `json:"dmedAt,omitempty"`
	FollowUpAt        *time.Time `json:"followUpAt,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	DMDraft           *string    `json:"dmDraft,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type CountsResponse struct {
	EngagedToday   int     `json:"engagedToday"`
	DmedToday      int     `json:"dmedToday"`
	Limit          int     `json:"limit"`
	RemainingQuota int     `json:"remainingQuota"`
	LimitReached   bool    `json:"limitReached"`
	Progress       float64 `json:"progress"`
}

type RunResponse struct {
	Kind            string `json:"kind"`
	Opened          int    `json:"opened"`
	Total           int    `json:"total"`
	Running         bool   `json:"running"`
	IntervalSeconds int    `json:"intervalSeconds"`
}

type BoardResponse struct {
	SessionID        string         `json:"sessionId"`
	GeneratedAt      time.Time      `json:"generatedAt"`
	Counts           CountsResponse `json:"counts"`
	EngageBatch      []LeadResponse `json:"engageBatch"`
	DMBatch          []LeadResponse `json:"dmBatch"`
	ReadyCount       int            `json:"readyCount"`
	Runs             []RunResponse  `json:"runs"`
	Loaded           bool           `json:"loaded"`
	RefreshedAt      *time.Time     `json:"refreshedAt,omitempty"`
	SnapshotTakenAt  *time.Time     `json:"snapshotTakenAt,omitempty"`
	SnapshotSize     int            `json:"snapshotSize"`
	Diverged         int            `json:"diverged"`
	LastRefreshError string         `json:"lastRefreshError,omitempty"`
	LastWriteError   string         `json:"lastWriteError,omitempty"`
}

type MarkBatchResponse struct {
	LeadIDs []int64   `json:"leadIds"`
	Matched int       `json:"matched"`
	Stage   string    `json:"stage"`
	At      time.Time `json:"at"`
	// WriteError is set when the store rejected the batch. The local change is kept.
	WriteError string `json:"writeError,omitempty"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type DraftSweepRequest struct {
	Limit      int  `json:"limit" validate:"omitempty,min=1,max=200"`
	Regenerate bool `json:"regenerate"`
}

type DraftSweepResponse struct {
	Day        string `json:"day"`
	Limit      int    `json:"limit,omitempty"`
	Regenerate bool   `json:"regenerate"`
	Queued     bool   `json:"queued"`
}
