package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func attach(t *testing.T, hub *Hub, tenantID string, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, TenantID: tenantID, Send: make(chan []byte, buffer)}
	hub.register <- c
	return c
}

func reconciled(tenantID string) events.BaseEvent {
	return events.BaseEvent{
		Type:       events.TypeTaxonomyReconciled,
		Data:       map[string]interface{}{"tenant_id": tenantID, "created_count": 3},
		OccurredAt: time.Now(),
	}
}

func TestHubDeliversOnlyToOwningTenant(t *testing.T) {
	hub, _ := runningHub(t)
	acme := attach(t, hub, "acme", 4)
	other := attach(t, hub, "other", 4)
	require.Eventually(t, func() bool { return hub.Connected("acme") == 1 && hub.Connected("other") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), reconciled("acme")))

	select {
	case msg := <-acme.Send:
		var env events.Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		assert.Equal(t, events.TypeTaxonomyReconciled, env.Type)
		assert.Equal(t, "acme", env.Data["tenant_id"])
	case <-time.After(time.Second):
		t.Fatal("acme got nothing")
	}
	assert.Empty(t, other.Send)
}

func TestHubDropsEventsWithoutTenant(t *testing.T) {
	hub, _ := runningHub(t)
	c := attach(t, hub, "acme", 4)
	require.Eventually(t, func() bool { return hub.Connected("acme") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.BaseEvent{Type: "OTHER", Data: map[string]interface{}{}}))
	assert.Empty(t, c.Send)
}

func TestHubFullBufferDoesNotBlock(t *testing.T) {
	hub, _ := runningHub(t)
	c := attach(t, hub, "acme", 1)
	require.Eventually(t, func() bool { return hub.Connected("acme") == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), reconciled("acme")))
	}
	assert.Len(t, c.Send, 1)
}

func TestHubUnregisterAndStop(t *testing.T) {
	hub, cancel := runningHub(t)
	a := attach(t, hub, "acme", 1)
	b := attach(t, hub, "acme", 1)
	require.Eventually(t, func() bool { return hub.Connected("acme") == 2 }, time.Second, 5*time.Millisecond)

	hub.unregister <- a
	require.Eventually(t, func() bool { return hub.Connected("acme") == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open)

	cancel()
	require.Eventually(t, func() bool { return hub.Connected("acme") == 0 }, time.Second, 5*time.Millisecond)
	_, open = <-b.Send
	assert.False(t, open)
}
