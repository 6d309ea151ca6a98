package validation

import (
	"fmt"
	"sort"
	"strings"

	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/schema"
)

// Violation is an intent whose target category has no static taxonomy node.
type Violation struct {
	Intent   string `json:"intent"`
	Category string `json:"category"`
}

// IntentTargetMissingError is fatal: the configuration must not reach the
// reconciler.
type IntentTargetMissingError struct {
	Violations []Violation
}

func (e *IntentTargetMissingError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s -> %q", v.Intent, v.Category))
	}
	return "intent targets missing from taxonomy: " + strings.Join(parts, ", ")
}

// MissingCategories lists each missing category once.
func (e *IntentTargetMissingError) MissingCategories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Category] {
			seen[v.Category] = true
			out = append(out, v.Category)
		}
	}
	return out
}

// BehaviorEntryMissingWarning flags a static node that falls back to the
// generic reply.
type BehaviorEntryMissingWarning struct {
	Path string `json:"path"`
}

func (w BehaviorEntryMissingWarning) Warning() merge.Warning {
	return merge.Warning{
		Code:    merge.WarnBehaviorEntryMissing,
		Subject: w.Path,
		Message: fmt.Sprintf("no behavior override for %q; the generic reply applies", w.Path),
	}
}

type Report struct {
	Violations []Violation                   `json:"violations"`
	Warnings   []BehaviorEntryMissingWarning `json:"warnings"`
}

// Err returns the fatal error for the report, nil when every target resolves.
func (r *Report) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	return &IntentTargetMissingError{Violations: r.Violations}
}

// MergeWarnings converts behavior warnings to the merge warning shape.
func (r *Report) MergeWarnings() []merge.Warning {
	out := make([]merge.Warning, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Warning())
	}
	return out
}

// Validate checks cross-layer integrity of a merged configuration. Expanded
// dynamic entries never count as classification targets. A node is covered
// by a behavior override on itself or on any ancestor.
func Validate(cfg *merge.MergedConfiguration) *Report {
	report := &Report{Violations: []Violation{}, Warnings: []BehaviorEntryMissingWarning{}}

	static := make(map[string]bool)
	_ = cfg.Taxonomy.Walk(func(v merge.NodeVisit) error {
		if !v.Node.Expanded && !v.Node.DynamicTemplate {
			static[schema.Canonical(v.Node.Name)] = true
		}
		return nil
	})

	cls := cfg.Classification
	intents := make([]string, 0, len(cls.IntentMap))
	for intent := range cls.IntentMap {
		intents = append(intents, intent)
	}
	sort.Strings(intents)
	for _, intent := range intents {
		targets := cls.Ambiguities[intent]
		if len(targets) == 0 {
			targets = []string{cls.IntentMap[intent]}
		}
		for _, category := range targets {
			if !static[schema.Canonical(category)] {
				report.Violations = append(report.Violations, Violation{Intent: intent, Category: category})
			}
		}
	}

	covered := make(map[string]bool)
	_ = cfg.Taxonomy.Walk(func(v merge.NodeVisit) error {
		if v.Node.Expanded {
			return nil
		}
		_, explicit := cfg.Behavior.Override(v.Node.Name)
		if explicit || covered[v.ParentPath] {
			covered[v.Path] = true
			return nil
		}
		report.Warnings = append(report.Warnings, BehaviorEntryMissingWarning{Path: v.Path})
		return nil
	})

	return report
}
