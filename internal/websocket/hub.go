package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries events between replicas so a tenant connected to
// one instance sees deployments run on another.
const clusterChannel = "onboarding_stream"

type clusterMessage struct {
	Origin   string          `json:"origin"`
	TenantID string          `json:"tenant_id"`
	Message  json.RawMessage `json:"message"`
}

// Hub fans deployment events out to the websocket clients of each tenant.
type Hub struct {
	id string

	// Registered clients map: TenantID -> List of Clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, may be nil
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.stop()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TenantID] = append(h.clients[client.TenantID], client)
			h.mu.Unlock()
			h.logger.Info(logger.ModuleStream, "Client registered", map[string]interface{}{"tenant_id": client.TenantID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.TenantID]
	for i, c := range clients {
		if c == client {
			h.clients[client.TenantID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.TenantID]) == 0 {
		delete(h.clients, client.TenantID)
		h.logger.Info(logger.ModuleStream, "Tenant has no open streams", map[string]interface{}{"tenant_id": client.TenantID})
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		for tenant, clients := range h.clients {
			for _, c := range clients {
				close(c.Send)
			}
			delete(h.clients, tenant)
		}
		h.mu.Unlock()
	})
}

// Connected returns how many streams the tenant has open on this instance.
func (h *Hub) Connected(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantID])
}

// Publish delivers an event to the clients of the tenant named by its
// tenant_id payload field. Events without a tenant are dropped.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	tenantID, _ := event.Payload()["tenant_id"].(string)
	if tenantID == "" {
		return nil
	}

	data, err := json.Marshal(events.NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	h.deliver(tenantID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.id, TenantID: tenantID, Message: data})
		if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
			return fmt.Errorf("relay %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// deliver never blocks: a client whose buffer is full misses the message.
func (h *Hub) deliver(tenantID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[tenantID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(logger.ModuleStream, "Client send buffer full, dropping message", map[string]interface{}{"tenant_id": tenantID})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(logger.ModuleStream, "Dropping malformed cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.id {
				continue
			}
			h.deliver(payload.TenantID, payload.Message)
		}
	}
}
