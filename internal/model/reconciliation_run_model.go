package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReconciliationRun struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantId     string         `gorm:"type:varchar(128);not null;index"`
	Provider     string         `gorm:"type:varchar(32);not null"`
	MatchedCount int            `gorm:"not null;default:0"`
	CreatedCount int            `gorm:"not null;default:0"`
	Failed       datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	Interrupted  bool           `gorm:"not null;default:false"`
	StartedAt    time.Time      `gorm:"not null;index"`
	FinishedAt   time.Time      `gorm:"not null"`
}

func (ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}
