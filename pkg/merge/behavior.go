package merge

import (
	"fmt"
	"sort"
	"strings"

	"email-onboarding-be/pkg/schema"
)

// DefaultGenericReply is used when no selected schema supplies one.
const DefaultGenericReply = "Thanks for reaching out. We have received your message and will get back to you shortly."

const tenantVoiceSource = "tenant voice"

// ToneDescriptor is one tone annotated with every business type that uses it.
type ToneDescriptor struct {
	Tone    string   `json:"tone"`
	Sources []string `json:"sources"`
}

func (d ToneDescriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.Tone, strings.Join(d.Sources, ", "))
}

// CategoryOverride holds the custom reply language for one category.
type CategoryOverride struct {
	Category string   `json:"category"`
	Examples []string `json:"examples"`
}

type MergedBehavior struct {
	Tone              string             `json:"tone"`
	ToneDescriptors   []ToneDescriptor   `json:"tone_descriptors"`
	Formality         string             `json:"formality,omitempty"`
	SignOff           string             `json:"sign_off,omitempty"`
	Goals             []string           `json:"goals"`
	CategoryOverrides []CategoryOverride `json:"category_overrides"`
	GenericReply      string             `json:"generic_reply"`
	Upsell            string             `json:"upsell,omitempty"`
}

// Override returns the override for a category by canonical name.
func (b *MergedBehavior) Override(category string) (CategoryOverride, bool) {
	c := schema.Canonical(category)
	for _, o := range b.CategoryOverrides {
		if schema.Canonical(o.Category) == c {
			return o, true
		}
	}
	return CategoryOverride{}, false
}

func sortBehavior(schemas []*schema.BehaviorSchema) []*schema.BehaviorSchema {
	out := append([]*schema.BehaviorSchema(nil), schemas...)
	sort.SliceStable(out, func(i, j int) bool {
		return schema.Slug(out[i].BusinessType()) < schema.Slug(out[j].BusinessType())
	})
	return out
}

// MergeBehavior folds N behavior schemas into one reply profile. A tenant
// voice profile, when present, leads the tone and wins formality and sign-off.
func MergeBehavior(schemas []*schema.BehaviorSchema, tenant *TenantProfile, opts Options) *MergedBehavior {
	opts = opts.withDefaults()
	sorted := sortBehavior(schemas)

	out := &MergedBehavior{
		ToneDescriptors:   []ToneDescriptor{},
		Goals:             []string{},
		CategoryOverrides: []CategoryOverride{},
	}

	var voice *schema.VoiceProfile
	if tenant != nil {
		voice = tenant.VoiceProfile
	}

	// Tone
	if voice != nil && strings.TrimSpace(voice.Tone) != "" {
		out.ToneDescriptors = append(out.ToneDescriptors, ToneDescriptor{
			Tone:    strings.TrimSpace(voice.Tone),
			Sources: []string{tenantVoiceSource},
		})
	}
	for _, s := range sorted {
		tone := strings.TrimSpace(s.VoiceProfile.Tone)
		if tone == "" {
			continue
		}
		merged := false
		for i := range out.ToneDescriptors {
			if normalizeText(out.ToneDescriptors[i].Tone) == normalizeText(tone) {
				out.ToneDescriptors[i].Sources = append(out.ToneDescriptors[i].Sources, s.BusinessType())
				merged = true
				break
			}
		}
		if !merged && len(out.ToneDescriptors) < opts.MaxToneDescriptors {
			out.ToneDescriptors = append(out.ToneDescriptors, ToneDescriptor{Tone: tone, Sources: []string{s.BusinessType()}})
		}
	}
	parts := make([]string, 0, len(out.ToneDescriptors))
	for _, d := range out.ToneDescriptors {
		parts = append(parts, d.String())
	}
	out.Tone = strings.Join(parts, "; ")

	if voice != nil {
		out.Formality = voice.Formality
		out.SignOff = voice.SignOff
	}
	for _, s := range sorted {
		if out.Formality == "" {
			out.Formality = s.VoiceProfile.Formality
		}
		if out.SignOff == "" {
			out.SignOff = strings.TrimSpace(s.VoiceProfile.SignOff)
		}
	}

	// Goals
	seenGoal := make(map[string]bool)
	for _, s := range sorted {
		for _, goal := range s.BehaviorGoals {
			norm := normalizeText(goal)
			if norm == "" || seenGoal[norm] {
				continue
			}
			seenGoal[norm] = true
			out.Goals = append(out.Goals, strings.TrimSpace(goal))
		}
	}

	// Overrides
	index := make(map[string]int)
	seenExample := make(map[string]map[string]bool)
	for _, s := range sorted {
		categories := sortedKeys(s.CategoryOverrides)
		sort.SliceStable(categories, func(i, j int) bool {
			return schema.Canonical(categories[i]) < schema.Canonical(categories[j])
		})
		for _, category := range categories {
			key := schema.Canonical(category)
			pos, ok := index[key]
			if !ok {
				pos = len(out.CategoryOverrides)
				index[key] = pos
				seenExample[key] = make(map[string]bool)
				out.CategoryOverrides = append(out.CategoryOverrides, CategoryOverride{Category: strings.TrimSpace(category), Examples: []string{}})
			}
			text := strings.TrimSpace(s.CategoryOverrides[category])
			norm := normalizeText(text)
			if seenExample[key][norm] || len(out.CategoryOverrides[pos].Examples) >= opts.MaxOverrideExamples {
				continue
			}
			seenExample[key][norm] = true
			out.CategoryOverrides[pos].Examples = append(out.CategoryOverrides[pos].Examples, text)
		}
	}

	for _, s := range sorted {
		if reply := strings.TrimSpace(s.GenericReply); reply != "" {
			out.GenericReply = reply
			break
		}
	}
	if out.GenericReply == "" {
		out.GenericReply = DefaultGenericReply
	}

	out.Upsell = composeUpsell(sorted)
	return out
}

// composeUpsell writes one phrase covering every business type that has
// upsell material instead of repeating each schema's text.
func composeUpsell(sorted []*schema.BehaviorSchema) string {
	var contributors []*schema.BehaviorSchema
	for _, s := range sorted {
		if strings.TrimSpace(s.UpsellText) != "" {
			contributors = append(contributors, s)
		}
	}
	switch len(contributors) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(contributors[0].UpsellText)
	}

	names := make([]string, 0, len(contributors))
	for _, s := range contributors {
		names = append(names, s.BusinessType())
	}
	return fmt.Sprintf(
		"As a full-service %s business, we can take care of related work across all of these services. Mention anything else on your list and we will quote it together.",
		joinNames(names),
	)
}
