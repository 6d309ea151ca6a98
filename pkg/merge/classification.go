package merge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"email-onboarding-be/pkg/schema"
)

// MergedClassification is the single classifier configuration for a composite business.
type MergedClassification struct {
	Keywords     map[string][]string    `json:"keywords"`
	IntentMap    map[string]string      `json:"intent_map"`
	Ambiguities  map[string][]string    `json:"ambiguities,omitempty"`
	Escalation   schema.Escalation      `json:"escalation"`
	Prompt       string                 `json:"prompt"`
	SpecialRules []schema.SpecialRule   `json:"special_rules"`
	AutoReply    schema.AutoReplyPolicy `json:"auto_reply"`
}

// Targets returns every category the intent map can route to, ambiguity
// candidates included, sorted.
func (c *MergedClassification) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(category string) {
		if !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	for _, category := range c.IntentMap {
		add(category)
	}
	for _, candidates := range c.Ambiguities {
		for _, category := range candidates {
			add(category)
		}
	}
	sort.Strings(out)
	return out
}

func sortClassification(schemas []*schema.ClassificationSchema) []*schema.ClassificationSchema {
	out := append([]*schema.ClassificationSchema(nil), schemas...)
	sort.SliceStable(out, func(i, j int) bool {
		return schema.Slug(out[i].BusinessType()) < schema.Slug(out[j].BusinessType())
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeClassification folds N classification schemas into one. The result
// depends only on the set of schemas, not the order they are passed in.
func MergeClassification(schemas []*schema.ClassificationSchema) (*MergedClassification, []Warning) {
	sorted := sortClassification(schemas)
	names := make([]string, 0, len(sorted))
	for _, s := range sorted {
		names = append(names, s.BusinessType())
	}

	out := &MergedClassification{
		Keywords:     make(map[string][]string),
		IntentMap:    make(map[string]string),
		SpecialRules: []schema.SpecialRule{},
	}
	var warnings []Warning

	// Keywords
	seenKeyword := make(map[string]map[string]bool)
	for _, s := range sorted {
		for _, group := range sortedKeys(s.Keywords) {
			key := schema.Canonical(group)
			if seenKeyword[key] == nil {
				seenKeyword[key] = make(map[string]bool)
			}
			for _, kw := range s.Keywords[group] {
				kw = strings.TrimSpace(kw)
				norm := strings.ToLower(kw)
				if seenKeyword[key][norm] {
					continue
				}
				seenKeyword[key][norm] = true
				out.Keywords[key] = append(out.Keywords[key], kw)
			}
		}
	}

	// Intents are keyed by canonical form. The merged map uses the spelling
	// of the first schema that declares the intent.
	display := make(map[string]string)
	candidates := make(map[string][]string)
	sources := make(map[string][]string)
	for _, s := range sorted {
		for _, intent := range sortedKeys(s.IntentMap) {
			key := schema.Canonical(intent)
			if _, ok := display[key]; !ok {
				display[key] = strings.TrimSpace(intent)
			}
			category := strings.TrimSpace(s.IntentMap[intent])
			known := false
			for _, c := range candidates[key] {
				if schema.Canonical(c) == schema.Canonical(category) {
					known = true
					break
				}
			}
			if !known {
				candidates[key] = append(candidates[key], category)
				sources[key] = append(sources[key], fmt.Sprintf("%s (%s)", category, s.BusinessType()))
			}
		}
	}
	for _, key := range sortedKeys(candidates) {
		intent, list := display[key], candidates[key]
		out.IntentMap[intent] = list[0]
		if len(list) > 1 {
			if out.Ambiguities == nil {
				out.Ambiguities = make(map[string][]string)
			}
			out.Ambiguities[intent] = list
			warnings = append(warnings, Warning{
				Code:    WarnIntentAmbiguity,
				Subject: intent,
				Message: fmt.Sprintf("intent maps to %s; defaulting to %q", strings.Join(sources[key], " vs "), list[0]),
			})
		}
	}

	// Escalation: strictest commitment wins, zero means the schema is silent.
	for _, s := range sorted {
		out.Escalation.EmergencyResponseMinutes = minPositive(out.Escalation.EmergencyResponseMinutes, s.Escalation.EmergencyResponseMinutes)
		out.Escalation.SLAHours = minPositive(out.Escalation.SLAHours, s.Escalation.SLAHours)
	}

	out.Prompt = composePrompt(names, sorted)

	for _, s := range sorted {
		for _, rule := range s.SpecialRules {
			r := rule
			r.Trigger.Contains = append([]string(nil), rule.Trigger.Contains...)
			r.Source = s.BusinessType()
			out.SpecialRules = append(out.SpecialRules, r)
		}
	}

	out.AutoReply = mergeAutoReply(sorted)
	return out, warnings
}

func minPositive(current, candidate int) int {
	if candidate <= 0 {
		return current
	}
	if current <= 0 || candidate < current {
		return candidate
	}
	return current
}

const (
	singlePreamble = "You are triaging the inbox of a business that operates as: %s."
	multiPreamble  = "You are triaging the inbox of a business that operates across several service lines: %s. " +
		"An email may concern any one of them; apply the guidance for the line of work it is about."
)

func composePrompt(names []string, sorted []*schema.ClassificationSchema) string {
	var b strings.Builder
	if len(names) == 1 {
		fmt.Fprintf(&b, singlePreamble, names[0])
	} else {
		fmt.Fprintf(&b, multiPreamble, joinNames(names))
	}

	seen := make(map[string]bool)
	for _, s := range sorted {
		for _, fragment := range s.PromptFragments {
			fragment = strings.TrimSpace(fragment)
			norm := normalizeText(fragment)
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			fmt.Fprintf(&b, "\n- [%s] %s", s.BusinessType(), fragment)
		}
	}
	return b.String()
}

func conditionKey(c schema.Condition) string {
	words := make([]string, 0, len(c.Contains))
	for _, w := range c.Contains {
		words = append(words, strings.ToLower(strings.TrimSpace(w)))
	}
	sort.Strings(words)
	return c.Field + ":" + strings.Join(words, "|")
}

// mergeAutoReply unions categories and exclusions and keeps the lowest
// non-zero confidence threshold.
func mergeAutoReply(sorted []*schema.ClassificationSchema) schema.AutoReplyPolicy {
	policy := schema.AutoReplyPolicy{
		EnabledCategories: []string{},
		Exclusions:        []schema.Condition{},
	}
	seenCategory := make(map[string]bool)
	seenExclusion := make(map[string]bool)
	threshold := math.Inf(1)

	for _, s := range sorted {
		for _, c := range s.AutoReply.EnabledCategories {
			c = strings.TrimSpace(c)
			if seenCategory[schema.Canonical(c)] {
				continue
			}
			seenCategory[schema.Canonical(c)] = true
			policy.EnabledCategories = append(policy.EnabledCategories, c)
		}
		for _, ex := range s.AutoReply.Exclusions {
			key := conditionKey(ex)
			if seenExclusion[key] {
				continue
			}
			seenExclusion[key] = true
			policy.Exclusions = append(policy.Exclusions, schema.Condition{
				Field:    ex.Field,
				Contains: append([]string(nil), ex.Contains...),
			})
		}
		if s.AutoReply.MinConfidence > 0 && s.AutoReply.MinConfidence < threshold {
			threshold = s.AutoReply.MinConfidence
		}
	}
	if !math.IsInf(threshold, 1) {
		policy.MinConfidence = threshold
	}
	return policy
}
