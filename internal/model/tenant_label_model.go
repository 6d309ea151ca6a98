package model

import (
	"time"

	"github.com/google/uuid"
)

type TenantLabel struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_tenant_labels_tenant_provider_path"`
	Provider  string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_tenant_labels_tenant_provider_path"`
	Path      string    `gorm:"type:text;not null;uniqueIndex:idx_tenant_labels_tenant_provider_path"`
	RemoteId  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TenantLabel) TableName() string {
	return "tenant_labels"
}
