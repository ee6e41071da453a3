package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrEmptyChannel  = errors.New("channel name is empty")
)

// Message is one ephemeral broadcast. Payload is delivered unchanged.
type Message struct {
	Channel string
	Event   string
	Payload []byte
}

// Handler receives messages for a joined channel.
type Handler func(Message)

// Hub is an in-process broadcast transport. Delivery is synchronous on the
// sender's goroutine, in join order.
type Hub struct {
	mu      sync.RWMutex
	members map[string]map[uint64]*Membership
	nextID  atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{members: make(map[string]map[uint64]*Membership)}
}

// Membership is a joined channel. A membership with a nil handler is send-only.
type Membership struct {
	hub     *Hub
	id      uint64
	channel string
	handler Handler
	gate    Gate
}

// Join subscribes to channel. The membership is ready when Join returns.
func (h *Hub) Join(ctx context.Context, channel string, handler Handler) (*Membership, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Membership{
		hub:     h,
		id:      h.nextID.Add(1),
		channel: channel,
		handler: handler,
	}

	if handler != nil {
		h.mu.Lock()
		if h.members[channel] == nil {
			h.members[channel] = make(map[uint64]*Membership)
		}
		h.members[channel][m.id] = m
		h.mu.Unlock()
	}

	return m, nil
}

// Publish delivers msg to every handler joined to msg.Channel and returns how many received it.
func (h *Hub) Publish(msg Message) int {
	h.mu.RLock()
	targets := make([]*Membership, 0, len(h.members[msg.Channel]))
	for _, m := range h.members[msg.Channel] {
		targets = append(targets, m)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, m := range targets {
		if m.gate.Do(func() { m.handler(msg) }) {
			delivered++
		}
	}
	return delivered
}

// Members returns the number of receiving memberships of a channel.
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[channel])
}

func (m *Membership) Channel() string {
	return m.channel
}

// Send broadcasts to every other receiving member of the channel, including other
// memberships of the same hub owned by this process.
func (m *Membership) Send(ctx context.Context, event string, payload []byte) error {
	if m.gate.Closed() {
		return ErrChannelClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.hub.Publish(Message{Channel: m.channel, Event: event, Payload: payload})
	return nil
}

// Leave releases the membership. No handler call starts after Leave returns, and it may
// be called from inside the handler.
func (m *Membership) Leave() error {
	if !m.gate.Close() {
		return nil
	}

	m.hub.mu.Lock()
	if members, ok := m.hub.members[m.channel]; ok {
		delete(members, m.id)
		if len(members) == 0 {
			delete(m.hub.members, m.channel)
		}
	}
	m.hub.mu.Unlock()

	return nil
}
