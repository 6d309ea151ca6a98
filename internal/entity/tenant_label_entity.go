package entity

import (
	"time"

	"github.com/google/uuid"
)

// TenantLabel is one taxonomy path resolved to a remote label or folder id.
type TenantLabel struct {
	Id        uuid.UUID
	TenantId  string
	Provider  string
	Path      string
	RemoteId  string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
