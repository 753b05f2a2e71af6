package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskGenerateDMDrafts = "leads:dm_drafts:generate"

// DMDraftSweepPayload describes one draft sweep. Day is the operator's local
// date in YYYY-MM-DD form and only identifies the sweep.
type DMDraftSweepPayload struct {
	Day        string `json:"day"`
	Limit      int    `json:"limit,omitempty"`
	Regenerate bool   `json:"regenerate,omitempty"`
	// Requested marks an operator-triggered sweep. Those are never deduplicated.
	Requested bool `json:"requested,omitempty"`
}

func NewDMDraftSweepTask(payload DMDraftSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateDMDrafts, data), nil
}

func ParseDMDraftSweepPayload(task *asynq.Task) (DMDraftSweepPayload, error) {
	var payload DMDraftSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DMDraftSweepPayload{}, fmt.Errorf("parse %s payload: %w: %w", TaskGenerateDMDrafts, err, asynq.SkipRetry)
	}
	return payload, nil
}

// draftSweepTaskID keeps at most one queued sweep per day.
func draftSweepTaskID(day string) string {
	return "dm-drafts:" + day
}
