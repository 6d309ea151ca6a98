package inject

import (
	"encoding/json"
	"strconv"
	"strings"

	"email-onboarding-be/pkg/merge"
)

// Well-known substitution keys. Category-derived keys are built with
// LabelKey and OverrideKey.
const (
	KeyBusinessName          = "BUSINESS_NAME"
	KeyBusinessTypes         = "BUSINESS_TYPES"
	KeyClassificationPrompt  = "CLASSIFICATION_PROMPT"
	KeyKeywordsJSON          = "KEYWORDS_JSON"
	KeyIntentMapJSON         = "INTENT_MAP_JSON"
	KeySpecialRulesJSON      = "SPECIAL_RULES_JSON"
	KeyAutoReplyCategories   = "AUTO_REPLY_CATEGORIES"
	KeyAutoReplyConfidence   = "AUTO_REPLY_MIN_CONFIDENCE"
	KeyAutoReplyExclusions   = "AUTO_REPLY_EXCLUSIONS_JSON"
	KeyEmergencyResponseMins = "EMERGENCY_RESPONSE_MINUTES"
	KeySLAHours              = "SLA_HOURS"
	KeyTone                  = "TONE"
	KeyFormality             = "FORMALITY"
	KeySignOff               = "SIGN_OFF"
	KeyBehaviorGoals         = "BEHAVIOR_GOALS"
	KeyGenericReply          = "GENERIC_REPLY"
	KeyUpsell                = "UPSELL"
	KeyTeamMembersJSON       = "TEAM_MEMBERS_JSON"
	KeyVendorsJSON           = "VENDORS_JSON"
	KeyLabelMapJSON          = "LABEL_MAP_JSON"
)

// LabelKey is the key carrying the remote id of the node at path.
func LabelKey(path string) string {
	return "LABEL_" + NormalizeKey(path)
}

// OverrideKey is the key carrying a category's override language.
func OverrideKey(category string) string {
	return "OVERRIDE_" + NormalizeKey(category)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// BuildValues derives the substitution map from a merged configuration and
// the reconciled path -> id map. Nodes without an id are left out so they
// resolve to EmptyMarker.
func BuildValues(cfg *merge.MergedConfiguration, tenant *merge.TenantProfile, ids map[string]string) map[string]string {
	values := make(map[string]string)
	set := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			values[key] = value
		}
	}

	set(KeyBusinessTypes, strings.Join(cfg.BusinessTypes, ", "))

	if cls := cfg.Classification; cls != nil {
		set(KeyClassificationPrompt, cls.Prompt)
		set(KeyKeywordsJSON, mustJSON(cls.Keywords))
		set(KeyIntentMapJSON, mustJSON(cls.IntentMap))
		set(KeySpecialRulesJSON, mustJSON(cls.SpecialRules))
		set(KeyAutoReplyCategories, strings.Join(cls.AutoReply.EnabledCategories, ", "))
		if cls.AutoReply.MinConfidence > 0 {
			set(KeyAutoReplyConfidence, strconv.FormatFloat(cls.AutoReply.MinConfidence, 'f', -1, 64))
		}
		set(KeyAutoReplyExclusions, mustJSON(cls.AutoReply.Exclusions))
		if cls.Escalation.EmergencyResponseMinutes > 0 {
			set(KeyEmergencyResponseMins, strconv.Itoa(cls.Escalation.EmergencyResponseMinutes))
		}
		if cls.Escalation.SLAHours > 0 {
			set(KeySLAHours, strconv.Itoa(cls.Escalation.SLAHours))
		}
	}

	if beh := cfg.Behavior; beh != nil {
		set(KeyTone, beh.Tone)
		set(KeyFormality, beh.Formality)
		set(KeySignOff, beh.SignOff)
		goals := make([]string, 0, len(beh.Goals))
		for _, g := range beh.Goals {
			goals = append(goals, "- "+g)
		}
		set(KeyBehaviorGoals, strings.Join(goals, "\n"))
		set(KeyGenericReply, beh.GenericReply)
		set(KeyUpsell, beh.Upsell)
		for _, o := range beh.CategoryOverrides {
			set(OverrideKey(o.Category), strings.Join(o.Examples, "\n"))
		}
	}

	if tenant != nil {
		set(KeyBusinessName, tenant.BusinessName)
		if len(tenant.TeamMembers) > 0 {
			set(KeyTeamMembersJSON, mustJSON(tenant.TeamMembers))
		}
		if len(tenant.Vendors) > 0 {
			set(KeyVendorsJSON, mustJSON(tenant.Vendors))
		}
	}

	if cfg.Taxonomy != nil {
		labelMap := make(map[string]string)
		_ = cfg.Taxonomy.Walk(func(v merge.NodeVisit) error {
			if id := ids[v.Path]; id != "" {
				labelMap[v.Path] = id
				set(LabelKey(v.Path), id)
			}
			return nil
		})
		set(KeyLabelMapJSON, mustJSON(labelMap))
	}
	return values
}
