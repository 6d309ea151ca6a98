package inject

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"email-onboarding-be/internal/pkg/logger"
)

// EmptyMarker replaces any substitution point that has no value.
const EmptyMarker = "__UNSET__"

//go:embed templates/email_workflow.json
var DefaultTemplate string

var (
	placeholder = regexp.MustCompile(`<<\s*([A-Za-z0-9][A-Za-z0-9_\-./ ]*?)\s*>>`)
	residual    = regexp.MustCompile(`<<[^<>]*>>`)
	nonAlnumRun = regexp.MustCompile(`[^A-Z0-9]+`)
)

// NormalizeKey maps a category or value name to its substitution key:
// "Urgent/No Power" becomes "URGENT_NO_POWER".
func NormalizeKey(name string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToUpper(name), "_")
	return strings.Trim(s, "_")
}

// UnresolvedPlaceholderError means the template contains substitution syntax
// that is not a valid <<KEY>> token. No document is produced in that case.
type UnresolvedPlaceholderError struct {
	Tokens []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unresolved placeholders remain: %s", strings.Join(e.Tokens, ", "))
}

type Output struct {
	Document string `json:"document"`
	// Unset lists keys that were replaced with EmptyMarker.
	Unset []string `json:"unset"`
}

type Injector struct {
	logger     logger.ILogger
	escapeJSON bool
}

type Option func(*Injector)

// WithJSONEscaping escapes values for embedding inside JSON string literals.
func WithJSONEscaping() Option {
	return func(i *Injector) {
		i.escapeJSON = true
	}
}

func New(log logger.ILogger, opts ...Option) *Injector {
	i := &Injector{logger: log}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject replaces every <<KEY>> in template with values[NormalizeKey(KEY)].
// Missing or empty values become EmptyMarker and are reported, not fatal.
func (i *Injector) Inject(template string, values map[string]string) (*Output, error) {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[NormalizeKey(k)] = v
	}

	// Malformed tokens are found in the template alone. Substituted values
	// may legitimately contain << >> and are never rescanned.
	stripped := placeholder.ReplaceAllLiteralString(template, EmptyMarker)
	if leftovers := residual.FindAllString(stripped, -1); len(leftovers) > 0 {
		return nil, &UnresolvedPlaceholderError{Tokens: dedupe(leftovers)}
	}

	out := &Output{Unset: []string{}}
	seenUnset := make(map[string]bool)

	doc := placeholder.ReplaceAllStringFunc(template, func(token string) string {
		key := NormalizeKey(placeholder.FindStringSubmatch(token)[1])
		value, ok := normalized[key]
		if !ok || value == "" {
			if !seenUnset[key] {
				seenUnset[key] = true
				out.Unset = append(out.Unset, key)
			}
			return EmptyMarker
		}
		if i.escapeJSON {
			return escapeJSONString(value)
		}
		return value
	})

	if len(out.Unset) > 0 {
		i.logger.Info(logger.ModuleInject, "Substitution points left without a value", map[string]interface{}{
			"keys":   out.Unset,
			"marker": EmptyMarker,
		})
	}
	out.Document = doc
	return out, nil
}

func escapeJSONString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	quoted := strings.TrimSuffix(buf.String(), "\n")
	return quoted[1 : len(quoted)-1]
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
