package inject

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	module, message string
	details         map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recordingLogger) record(module, message string, details map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{module, message, details})
}

func (r *recordingLogger) Debug(m, msg string, d map[string]interface{}) { r.record(m, msg, d) }
func (r *recordingLogger) Info(m, msg string, d map[string]interface{})  { r.record(m, msg, d) }
func (r *recordingLogger) Warn(m, msg string, d map[string]interface{})  { r.record(m, msg, d) }
func (r *recordingLogger) Error(m, msg string, d map[string]interface{}) { r.record(m, msg, d) }
func (r *recordingLogger) Sync() error                                   { return nil }

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Urgent":             "URGENT",
		"Urgent/No Power":    "URGENT_NO_POWER",
		" maintenance-plans": "MAINTENANCE_PLANS",
		"Pools & Spas":       "POOLS_SPAS",
		"__x__":              "X",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestInjectSubstitutesNormalizedKeys(t *testing.T) {
	out, err := New(logger.NewNopLogger()).Inject(
		"route <<LABEL_URGENT>> and << label urgent/no-power >> for <<Business Name>>",
		map[string]string{"label_urgent": "L1", "LABEL_URGENT_NO_POWER": "L2", "BUSINESS_NAME": "Volt Bros"},
	)

	require.NoError(t, err)
	assert.Equal(t, "route L1 and L2 for Volt Bros", out.Document)
	assert.Empty(t, out.Unset)
}

func TestInjectMissingValueUsesEmptyMarker(t *testing.T) {
	rec := &recordingLogger{}

	out, err := New(rec).Inject(`{"roofing": "<<LABEL_ROOFING>>", "again": "<<LABEL_ROOFING>>"}`, map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, `{"roofing": "__UNSET__", "again": "__UNSET__"}`, out.Document)
	assert.Equal(t, []string{"LABEL_ROOFING"}, out.Unset)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, logger.ModuleInject, rec.entries[0].module)
}

func TestInjectEmptyValueCountsAsMissing(t *testing.T) {
	out, err := New(logger.NewNopLogger()).Inject("<<UPSELL>>", map[string]string{"UPSELL": ""})

	require.NoError(t, err)
	assert.Equal(t, EmptyMarker, out.Document)
}

func TestInjectRejectsUnresolvedSyntax(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
	}{
		{name: "malformed key", template: "x <<$bad key>> y"},
		{name: "empty key", template: "x <<>> y"},
		{name: "malformed beside a valid token", template: "<<TONE>> <<?>>", values: map[string]string{"TONE": "warm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(logger.NewNopLogger()).Inject(tt.template, tt.values)

			assert.Nil(t, out)
			var unresolved *UnresolvedPlaceholderError
			require.True(t, errors.As(err, &unresolved))
			assert.NotEmpty(t, unresolved.Tokens)
		})
	}
}

func TestInjectValuesMayContainAngleBrackets(t *testing.T) {
	values := map[string]string{"BUSINESS_NAME": "Acme <<VIP>> Plumbing", "SIGN_OFF": "<<SIGN_OFF>>"}

	out, err := New(logger.NewNopLogger(), WithJSONEscaping()).Inject(`{"name":"<<BUSINESS_NAME>>","sig":"<<SIGN_OFF>>"}`, values)

	require.NoError(t, err)
	assert.Equal(t, `{"name":"Acme <<VIP>> Plumbing","sig":"<<SIGN_OFF>>"}`, out.Document)
	assert.Empty(t, out.Unset)
}

func TestInjectJSONEscaping(t *testing.T) {
	out, err := New(logger.NewNopLogger(), WithJSONEscaping()).Inject(
		`{"prompt": "<<PROMPT>>"}`,
		map[string]string{"PROMPT": "line one\n\"quoted\" <b>"},
	)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out.Document), &decoded))
	assert.Equal(t, "line one\n\"quoted\" <b>", decoded["prompt"])
}

func TestDefaultTemplateResolvesFromMergedConfiguration(t *testing.T) {
	repo := schema.NewRepository(schema.NewEmbeddedSource(), logger.NewNopLogger())
	engine := merge.NewEngine(repo, merge.DefaultOptions(), logger.NewNopLogger())
	tenant := &merge.TenantProfile{
		TenantID:     "t1",
		BusinessName: "Volt & Pipe Co",
		TeamMembers:  []merge.TeamMember{{Name: "Ana", Email: "ana@example.com"}},
	}
	cfg, err := engine.Merge(context.Background(), []string{"Electrician", "Plumber"}, tenant)
	require.NoError(t, err)

	ids := map[string]string{"Urgent": "L-urgent", "Sales": "L-sales", "Urgent/No Power": "L-np"}
	values := BuildValues(cfg, tenant, ids)

	assert.Equal(t, "L-np", values[LabelKey("Urgent/No Power")])
	assert.Equal(t, "45", values[KeyEmergencyResponseMins])
	assert.Contains(t, values, OverrideKey("Permits"))

	out, err := New(logger.NewNopLogger(), WithJSONEscaping()).Inject(DefaultTemplate, values)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out.Document), &doc), "resolved template stays valid JSON")
	assert.Equal(t, "Inbox triage - Volt & Pipe Co", doc["name"])
	assert.Contains(t, out.Unset, "LABEL_BILLING")
	assert.NotContains(t, out.Unset, "LABEL_URGENT")
	assert.NotRegexp(t, `<<[^<>]*>>`, out.Document)
}
