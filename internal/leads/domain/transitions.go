package domain

import (
	"errors"
	"time"
)

var (
	ErrUnknownStage = errors.New("unknown pipeline stage")
	ErrSameStage    = errors.New("lead is already in that stage")
)

// StampField names the timestamp a transition writes, using the store column name.
type StampField string

const (
	StampNone      StampField = ""
	StampEngagedAt StampField = "engaged_at"
	StampDmedAt    StampField = "dmed_at"
)

// Transition is one permitted move between stages and the timestamp it stamps.
type Transition struct {
	From  Stage
	To    Stage
	Stamp StampField
}

// transitions holds every permitted (from, to) pair. Every pair of distinct stages
// is present; closed and dead are not terminal. Tightening the funnel means
// removing entries here.
var transitions = buildTransitions()

func buildTransitions() map[Stage]map[Stage]Transition {
	table := make(map[Stage]map[Stage]Transition, len(pipelineStages))
	for _, from := range pipelineStages {
		row := make(map[Stage]Transition, len(pipelineStages)-1)
		for _, to := range pipelineStages {
			if from == to {
				continue
			}
			row[to] = Transition{From: from, To: to, Stamp: stampOnEntry(to)}
		}
		table[from] = row
	}
	return table
}

func stampOnEntry(to Stage) StampField {
	switch to {
	case StageEngaged:
		return StampEngagedAt
	case StageDmed:
		return StampDmedAt
	default:
		return StampNone
	}
}

// StampFor returns the timestamp written when a lead enters stage.
func StampFor(stage Stage) StampField {
	return stampOnEntry(stage)
}

// LookupTransition returns the transition from one stage to another.
// Moving to the current stage yields ErrSameStage.
func LookupTransition(from, to Stage) (Transition, error) {
	if _, ok := knownPipelineStages[to]; !ok {
		return Transition{}, ErrUnknownStage
	}
	if _, ok := knownPipelineStages[from]; !ok {
		return Transition{}, ErrUnknownStage
	}
	if from == to {
		return Transition{}, ErrSameStage
	}
	t, ok := transitions[from][to]
	if !ok {
		// Unreachable while the table is complete.
		return Transition{}, ErrUnknownStage
	}
	return t, nil
}

// AllowedTargets lists the stages a lead in from may move to, in funnel order.
func AllowedTargets(from Stage) []Stage {
	row := transitions[from]
	out := make([]Stage, 0, len(row))
	for _, s := range pipelineStages {
		if _, ok := row[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Transitions enumerates the whole table in funnel order.
func Transitions() []Transition {
	out := make([]Transition, 0, len(pipelineStages)*(len(pipelineStages)-1))
	for _, from := range pipelineStages {
		for _, to := range AllowedTargets(from) {
			out = append(out, transitions[from][to])
		}
	}
	return out
}

// Patch returns the store patch that performs this transition at now.
func (t Transition) Patch(now time.Time) Patch {
	return StagePatch(t.To, t.Stamp, now)
}

// MoveLead validates the move and returns the lead as it looks after it.
func MoveLead(lead Lead, to Stage, now time.Time) (Lead, Transition, error) {
	t, err := LookupTransition(lead.Stage, to)
	if err != nil {
		return lead, Transition{}, err
	}
	return t.Patch(now).ApplyTo(lead), t, nil
}
