package dto

import (
	"time"

	"email-onboarding-be/internal/entity"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/reconcile"
	"email-onboarding-be/pkg/schema"

	"github.com/google/uuid"
)

type BusinessTypeResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// TenantRequest is the tenant-specific input of a preview or deployment.
type TenantRequest struct {
	BusinessName string               `json:"business_name" validate:"required"`
	TeamMembers  []merge.TeamMember   `json:"team_members" validate:"dive"`
	Vendors      []merge.Vendor       `json:"vendors" validate:"dive"`
	VoiceProfile *schema.VoiceProfile `json:"voice_profile"`
}

type PreviewRequest struct {
	BusinessTypes []string      `json:"business_types" validate:"required,min=1,dive,required"`
	Tenant        TenantRequest `json:"tenant"`
}

type PreviewResponse struct {
	BusinessTypes  []string                    `json:"business_types"`
	Classification *merge.MergedClassification `json:"classification"`
	Behavior       *merge.MergedBehavior       `json:"behavior"`
	Taxonomy       *merge.MergedTaxonomy       `json:"taxonomy"`
	NodeCount      int                         `json:"node_count"`
	Warnings       []merge.Warning             `json:"warnings"`
}

type DeployRequest struct {
	BusinessTypes []string      `json:"business_types" validate:"required,min=1,dive,required"`
	Tenant        TenantRequest `json:"tenant"`
	Provider      string        `json:"provider" validate:"omitempty,oneof=gmail outlook google microsoft graph office365"`
	AccessToken   string        `json:"access_token" validate:"required"`
	// Template replaces the default workflow template when set.
	Template string `json:"template"`
	Async    bool   `json:"async"`
}

const (
	DeploymentStatusCompleted = "completed"
	DeploymentStatusPartial   = "partial"
	DeploymentStatusQueued    = "queued"
)

type DeployResponse struct {
	JobId          uuid.UUID         `json:"job_id"`
	Status         string            `json:"status"`
	Reconciliation *reconcile.Result `json:"reconciliation,omitempty"`
	Document       string            `json:"document,omitempty"`
	Unset          []string          `json:"unset,omitempty"`
	Warnings       []merge.Warning   `json:"warnings"`
}

// PublishDeploymentMessage is the payload of an async deployment job.
type PublishDeploymentMessage struct {
	JobId    uuid.UUID     `json:"job_id"`
	TenantId string        `json:"tenant_id"`
	Request  DeployRequest `json:"request"`
}

type RunSummaryResponse struct {
	Id           uuid.UUID                      `json:"id"`
	Provider     string                         `json:"provider"`
	MatchedCount int                            `json:"matched_count"`
	CreatedCount int                            `json:"created_count"`
	Failed       []entity.ReconciliationFailure `json:"failed"`
	Interrupted  bool                           `json:"interrupted"`
	StartedAt    time.Time                      `json:"started_at"`
	FinishedAt   time.Time                      `json:"finished_at"`
}

type LabelMapResponse struct {
	TenantId string `json:"tenant_id"`
	// Labels maps provider kind -> path -> remote id.
	Labels map[string]map[string]string `json:"labels"`
	Runs   []RunSummaryResponse         `json:"runs"`
}
