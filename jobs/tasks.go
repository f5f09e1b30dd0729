package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity scans the ledger for violated invariants.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportsWarmup precomputes balance sheets into the report cache.
	TaskReportsWarmup = "reports:warmup"
)

// WarmupPayload selects the organizations to warm. A nil organization id
// warms every known organization.
type WarmupPayload struct {
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewReportsWarmupTask constructs a report warmup task.
func NewReportsWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}
