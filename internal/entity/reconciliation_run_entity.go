package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReconciliationFailure struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	Retriable bool   `json:"retriable"`
}

// ReconciliationRun is the audit record of one reconciler pass.
type ReconciliationRun struct {
	Id           uuid.UUID
	TenantId     string
	Provider     string
	MatchedCount int
	CreatedCount int
	Failed       []ReconciliationFailure
	Interrupted  bool
	StartedAt    time.Time
	FinishedAt   time.Time
}
