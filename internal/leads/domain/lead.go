package domain

import (
	"fmt"
	"strings"
	"time"
)

// LeadID is the store's primary key for a lead. Batch membership is always tracked by it.
type LeadID int64

// Lead is one tracked Instagram prospect.
type Lead struct {
	ID                LeadID
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
	Stage             Stage
	FollowedAt        *time.Time
	EngagedAt         *time.Time
	DmedAt            *time.Time
	FollowUpAt        *time.Time
	Notes             string
	DMDraft           *string
	ScrapedAt         *time.Time
	CreatedAt         time.Time
}

// ProfileURL is the external target opened for this lead.
func (l Lead) ProfileURL() string {
	return fmt.Sprintf("https://instagram.com/%s", strings.TrimPrefix(l.InstagramHandle, "@"))
}

// HasDraft reports whether a non-blank DM draft is ready to send.
func (l Lead) HasDraft() bool {
	return l.DMDraft != nil && strings.TrimSpace(*l.DMDraft) != ""
}

// FirstName returns the first word of the full name, or the handle when the name is empty.
func (l Lead) FirstName() string {
	if fields := strings.Fields(l.FullName); len(fields) > 0 {
		return fields[0]
	}
	return l.InstagramHandle
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Stage     *Stage
	EngagedAt *time.Time
	DmedAt    *time.Time
	DMDraft   *string
}

// StagePatch builds the patch for moving into stage, stamping field with at when set.
func StagePatch(stage Stage, field StampField, at time.Time) Patch {
	p := Patch{Stage: &stage}
	switch field {
	case StampEngagedAt:
		p.EngagedAt = &at
	case StampDmedAt:
		p.DmedAt = &at
	}
	return p
}

// DraftPatch builds the patch that stores a generated DM draft.
func DraftPatch(text string) Patch {
	return Patch{DMDraft: &text}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Stage == nil && p.EngagedAt == nil && p.DmedAt == nil && p.DMDraft == nil
}

// ApplyTo returns a copy of lead with the patch applied.
func (p Patch) ApplyTo(lead Lead) Lead {
	if p.Stage != nil {
		lead.Stage = *p.Stage
	}
	if p.EngagedAt != nil {
		at := *p.EngagedAt
		lead.EngagedAt = &at
	}
	if p.DmedAt != nil {
		at := *p.DmedAt
		lead.DmedAt = &at
	}
	if p.DMDraft != nil {
		text := *p.DMDraft
		lead.DMDraft = &text
	}
	return lead
}

// Validate rejects patches that would put a lead outside the known stages.
func (p Patch) Validate() error {
	if p.Stage != nil && !IsKnownPipelineStage(string(*p.Stage)) {
		return fmt.Errorf("%w: %q", ErrUnknownStage, *p.Stage)
	}
	return nil
}
