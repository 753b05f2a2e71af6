package domain

import "fmt"

// Stage is a lead's position in the outreach funnel. Persisted as the status column.
type Stage string

const (
	StageNew        Stage = "new"
	StageEngaged    Stage = "engaged"
	StageDmed       Stage = "dmed"
	StageReplied    Stage = "replied"
	StageCallBooked Stage = "call_booked"
	StageClosed     Stage = "closed"
	StageDead       Stage = "dead"
)

// pipelineStages lists every stage in funnel order.
var pipelineStages = []Stage{
	StageNew,
	StageEngaged,
	StageDmed,
	StageReplied,
	StageCallBooked,
	StageClosed,
	StageDead,
}

var knownPipelineStages = func() map[Stage]struct{} {
	m := make(map[Stage]struct{}, len(pipelineStages))
	for _, s := range pipelineStages {
		m[s] = struct{}{}
	}
	return m
}()

// PipelineStages returns all stages in funnel order.
func PipelineStages() []Stage {
	return append([]Stage(nil), pipelineStages...)
}

func IsKnownPipelineStage(stage string) bool {
	_, ok := knownPipelineStages[Stage(stage)]
	return ok
}

// ParseStage converts a stored or requested status into a Stage.
// An empty value maps to StageNew, the default for rows created without a status.
func ParseStage(raw string) (Stage, error) {
	if raw == "" {
		return StageNew, nil
	}
	if !IsKnownPipelineStage(raw) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return Stage(raw), nil
}

func (s Stage) String() string { return string(s) }
