package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kedai-qr/api/internal/ws"
)

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToChannel(channel string, event ws.Event)
}

// HubPublisher pushes events to websocket rooms.
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", e.Type, err)
	}
	for _, ch := range e.Channels {
		p.hub.BroadcastToChannel(ch, ws.Event{Type: e.Type, Payload: payload})
	}
	return nil
}
