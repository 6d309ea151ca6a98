package merge

import (
	"strings"

	"email-onboarding-be/pkg/schema"
)

// Warning codes surfaced with a merged configuration.
const (
	WarnIntentAmbiguity      = "intent_ambiguity"
	WarnColorConflict        = "color_conflict"
	WarnBehaviorEntryMissing = "behavior_entry_missing"
	WarnEmptyDynamicSource   = "empty_dynamic_source"
)

// Warning is a non-fatal finding the caller may want to resolve.
type Warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type TeamMember struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type Vendor struct {
	Name   string `json:"name" validate:"required_without=Domain"`
	Domain string `json:"domain,omitempty" validate:"omitempty,fqdn"`
}

// DisplayName is the label a vendor expands to.
func (v Vendor) DisplayName() string {
	if name := strings.TrimSpace(v.Name); name != "" {
		return name
	}
	return strings.TrimSpace(v.Domain)
}

// TenantProfile carries the per-tenant values the static schemas cannot know.
type TenantProfile struct {
	TenantID     string               `json:"tenant_id"`
	BusinessName string               `json:"business_name"`
	TeamMembers  []TeamMember         `json:"team_members,omitempty" validate:"dive"`
	Vendors      []Vendor             `json:"vendors,omitempty" validate:"dive"`
	VoiceProfile *schema.VoiceProfile `json:"voice_profile,omitempty"`
}

// Options bounds the size of merged prompt material.
type Options struct {
	MaxToneDescriptors  int
	MaxOverrideExamples int
}

func DefaultOptions() Options {
	return Options{MaxToneDescriptors: 4, MaxOverrideExamples: 3}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxToneDescriptors <= 0 {
		o.MaxToneDescriptors = d.MaxToneDescriptors
	}
	if o.MaxOverrideExamples <= 0 {
		o.MaxOverrideExamples = d.MaxOverrideExamples
	}
	return o
}

// MergedConfiguration is the full per-deployment aggregate. It is rebuilt on
// every request and never persisted.
type MergedConfiguration struct {
	BusinessTypes  []string              `json:"business_types"`
	Classification *MergedClassification `json:"classification"`
	Behavior       *MergedBehavior       `json:"behavior"`
	Taxonomy       *MergedTaxonomy       `json:"taxonomy"`
	Warnings       []Warning             `json:"warnings"`
}

// joinNames renders ["A","B","C"] as "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
