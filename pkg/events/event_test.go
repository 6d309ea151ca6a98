package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "onboarding.taxonomy_reconciled", Subject(TypeTaxonomyReconciled))
	assert.Equal(t, "onboarding.deployment_failed", Subject(TypeDeploymentFailed))
}

func TestEnvelopeCarriesTypeAndTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := BaseEvent{Type: TypeDeploymentFailed, Data: map[string]interface{}{"tenant_id": "t1"}, OccurredAt: at}

	data, err := json.Marshal(NewEnvelope(evt))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	back := env.Event()
	assert.Equal(t, TypeDeploymentFailed, back.EventType())
	assert.True(t, at.Equal(back.Timestamp()))
	assert.Equal(t, "t1", back.Payload()["tenant_id"])
}
