// Package feed pushes grievance status changes to connected officers over
// WebSocket. With a broker configured, events travel through Redis pub/sub so
// every API instance sees transitions committed by the others.
package feed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/models"
)

// DefaultChannel is the Redis channel transitions are published on.
const DefaultChannel = "civicledger:transitions"

// Broker is the pub/sub transport. storage.RedisStore implements it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *redis.PubSub
}

// Hub tracks connected clients. Clients is owned by the Run goroutine.
type Hub struct {
	Clients map[Client]bool

	RegisterCh   chan Client
	UnregisterCh chan Client

	Broker  Broker
	Channel string
	Log     logrus.FieldLogger

	events chan models.StatusEvent
	done   chan struct{}
}

// NewHub creates a hub. A nil broker keeps delivery in-process.
func NewHub(broker Broker, log logrus.FieldLogger) *Hub {
	return &Hub{
		Clients:      make(map[Client]bool),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Broker:       broker,
		Channel:      DefaultChannel,
		Log:          log,
		events:       make(chan models.StatusEvent, 64),
		done:         make(chan struct{}),
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds a client unless the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It never blocks after the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

// OnTransition publishes a committed transition to every instance.
func (h *Hub) OnTransition(ctx context.Context, ev models.StatusEvent) {
	if h.Broker == nil {
		h.enqueue(ev)
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.Log.WithError(err).Error("Failed to encode status event")
		return
	}
	if err := h.Broker.Publish(ctx, h.Channel, payload); err != nil {
		h.Log.WithError(err).WithField("complaint_id", ev.ComplaintID).Warn("Failed to publish status event, delivering locally")
		h.enqueue(ev)
	}
}

// enqueue drops the event when the hub is saturated or stopped; the feed is
// best effort and must never hold up a committed transition.
func (h *Hub) enqueue(ev models.StatusEvent) {
	select {
	case h.events <- ev:
	case <-h.done:
	default:
		h.Log.WithField("complaint_id", ev.ComplaintID).Warn("Live feed backlog full, dropping event")
	}
}

// Run serves registrations and fans out events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	if h.Broker != nil {
		pubsub := h.Broker.Subscribe(ctx, h.Channel)
		defer pubsub.Close()
		go h.listen(ctx, pubsub.Channel())
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.Clients {
				delete(h.Clients, c)
				c.Close()
			}
			return nil

		case c := <-h.RegisterCh:
			h.Clients[c] = true
			h.Log.WithField("officer_id", c.OfficerID()).Debug("Feed client registered")

		case c := <-h.UnregisterCh:
			if _, ok := h.Clients[c]; ok {
				delete(h.Clients, c)
				c.Close()
				h.Log.WithField("officer_id", c.OfficerID()).Debug("Feed client unregistered")
			}

		case ev := <-h.events:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev models.StatusEvent) {
	for c := range h.Clients {
		if id := c.OfficerID(); id != "" && id != ev.OfficerID {
			continue
		}
		select {
		case c.SendChannel() <- ev:
		default:
			// Slow consumer. Removing it here avoids a send to UnregisterCh
			// from inside Run.
			delete(h.Clients, c)
			c.Close()
			h.Log.WithField("officer_id", c.OfficerID()).Warn("Dropping slow feed client")
		}
	}
}

func (h *Hub) listen(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev models.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.Log.WithError(err).Warn("Ignoring undecodable status event")
				continue
			}
			h.enqueue(ev)
		}
	}
}
