package schema

// Layer names one of the three independently authored schema families.
type Layer string

const (
	LayerClassification Layer = "classification"
	LayerBehavior       Layer = "behavior"
	LayerTaxonomy       Layer = "taxonomy"
)

// Layers returns every layer in load order.
func Layers() []Layer {
	return []Layer{LayerClassification, LayerBehavior, LayerTaxonomy}
}

// Document is the tagged variant every schema layer implements.
type Document interface {
	Layer() Layer
	BusinessType() string
	Version() int
}

// Meta is the header shared by all schema documents.
type Meta struct {
	Type string `yaml:"businessType" json:"business_type" validate:"required"`
	Ver  int    `yaml:"version" json:"version" validate:"gte=1"`
}

func (m Meta) BusinessType() string { return m.Type }
func (m Meta) Version() int         { return m.Ver }

// ============================================================================
// Classification layer
// ============================================================================

type ClassificationSchema struct {
	Meta            `yaml:",inline"`
	Keywords        map[string][]string `yaml:"keywords" json:"keywords"`
	IntentMap       map[string]string   `yaml:"intentMap" json:"intent_map"`
	Escalation      Escalation          `yaml:"escalation" json:"escalation"`
	PromptFragments []string            `yaml:"promptFragments" json:"prompt_fragments"`
	SpecialRules    []SpecialRule       `yaml:"specialRules" json:"special_rules" validate:"dive"`
	AutoReply       AutoReplyPolicy     `yaml:"autoReply" json:"auto_reply"`
}

func (*ClassificationSchema) Layer() Layer { return LayerClassification }

// Escalation holds response commitments. Zero means "not specified".
type Escalation struct {
	EmergencyResponseMinutes int `yaml:"emergencyResponseMinutes" json:"emergency_response_minutes" validate:"gte=0"`
	SLAHours                 int `yaml:"slaHours" json:"sla_hours" validate:"gte=0"`
}

// Condition matches an inbound message. Field is one of subject, body, from or any.
type Condition struct {
	Field    string   `yaml:"field" json:"field" validate:"required,oneof=subject body from any"`
	Contains []string `yaml:"contains" json:"contains" validate:"required,min=1,dive,required"`
}

// RuleAction overrides the classifier's decision.
type RuleAction struct {
	ForceCategory string `yaml:"forceCategory" json:"force_category" validate:"required"`
	Priority      string `yaml:"priority,omitempty" json:"priority,omitempty" validate:"omitempty,oneof=low normal high critical"`
}

// SpecialRule is applied after classification. Source is filled in at merge
// time with the business type that contributed it.
type SpecialRule struct {
	Trigger Condition  `yaml:"trigger" json:"trigger"`
	Action  RuleAction `yaml:"action" json:"action"`
	Source  string     `yaml:"-" json:"source,omitempty"`
}

type AutoReplyPolicy struct {
	EnabledCategories []string    `yaml:"enabledCategories" json:"enabled_categories"`
	MinConfidence     float64     `yaml:"minConfidence" json:"min_confidence" validate:"gte=0,lte=1"`
	Exclusions        []Condition `yaml:"exclusions" json:"exclusions" validate:"dive"`
}

// ============================================================================
// Behavior layer
// ============================================================================

type BehaviorSchema struct {
	Meta              `yaml:",inline"`
	VoiceProfile      VoiceProfile      `yaml:"voiceProfile" json:"voice_profile"`
	BehaviorGoals     []string          `yaml:"behaviorGoals" json:"behavior_goals"`
	CategoryOverrides map[string]string `yaml:"categoryOverrides" json:"category_overrides"`
	GenericReply      string            `yaml:"genericReply" json:"generic_reply"`
	UpsellText        string            `yaml:"upsellText" json:"upsell_text"`
}

func (*BehaviorSchema) Layer() Layer { return LayerBehavior }

// VoiceProfile describes how replies should sound. Tenants may supply one
// produced by the sent-mail analysis; it then leads the merged tone.
type VoiceProfile struct {
	Tone      string `yaml:"tone" json:"tone" validate:"required"`
	Formality string `yaml:"formality,omitempty" json:"formality,omitempty" validate:"omitempty,oneof=casual neutral formal"`
	SignOff   string `yaml:"signOff,omitempty" json:"sign_off,omitempty"`
}

// ============================================================================
// Taxonomy layer
// ============================================================================

type TaxonomySchema struct {
	Meta  `yaml:",inline"`
	Nodes []*TaxonomyNode `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
}

func (*TaxonomySchema) Layer() Layer { return LayerTaxonomy }

// DynamicSource names the tenant list a dynamic template expands from.
type DynamicSource string

const (
	SourceTeamMembers DynamicSource = "team_members"
	SourceVendors     DynamicSource = "vendors"
)

func (s DynamicSource) Valid() bool {
	return s == SourceTeamMembers || s == SourceVendors
}

// TaxonomyNode is one label or folder. A node flagged DynamicTemplate is a
// placeholder leaf replaced at merge time by one sibling per tenant entry of
// DynamicSource. Expanded marks those generated leaves.
type TaxonomyNode struct {
	Name            string          `yaml:"name" json:"name" validate:"required,excludesall=/"`
	Color           string          `yaml:"color,omitempty" json:"color,omitempty" validate:"omitempty,hexcolor"`
	ParentName      string          `yaml:"parentName,omitempty" json:"parent_name,omitempty"`
	Children        []*TaxonomyNode `yaml:"children,omitempty" json:"children,omitempty" validate:"dive"`
	DynamicTemplate bool            `yaml:"dynamicTemplate,omitempty" json:"dynamic_template,omitempty"`
	DynamicSource   DynamicSource   `yaml:"dynamicSource,omitempty" json:"dynamic_source,omitempty"`
	Expanded        bool            `yaml:"-" json:"expanded,omitempty"`
}

// FindChild returns the direct child with the same canonical name.
func (n *TaxonomyNode) FindChild(name string) *TaxonomyNode {
	return findByCanonical(n.Children, Canonical(name))
}

func findByCanonical(nodes []*TaxonomyNode, canonical string) *TaxonomyNode {
	for _, n := range nodes {
		if Canonical(n.Name) == canonical {
			return n
		}
	}
	return nil
}
