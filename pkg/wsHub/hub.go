package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub keeps the active WebSocket connections of one kind, keyed by entity id.
type ConnectionHub struct {
	clients map[string]*Conn
	l       logger.Logger
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[string]*Conn),
		l:       l,
	}
}

// Add registers newConn. An existing connection with the same entity id is closed
// and replaced.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")

	if existing, ok := h.clients[newConn.entityID]; ok {
		h.l.Warn(ctx, "replacing existing connection", "entity_id", existing.entityID)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx, "failed to close existing conn", "entity_id", existing.entityID, "error", err.Error())
		}
	} else {
		h.wg.Add(1)
	}

	h.clients[newConn.entityID] = newConn
	return nil
}

// Delete closes conn and removes it if it is still the registered connection of its id.
func (h *ConnectionHub) Delete(conn *Conn) error {
	if conn == nil {
		return ErrEmptyConn
	}

	ctx := wrap.WithAction(context.Background(), "ws_connection_delete")
	if err := conn.Close(); err != nil {
		h.l.Debug(ctx, "failed to close conn", "entity_id", conn.entityID, "error", err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[conn.entityID]
	if !ok || current != conn {
		return ErrConnIsNotFound
	}

	delete(h.clients, conn.entityID)
	h.wg.Done()

	return nil
}

// SendTo sends msg to the connection of id.
func (h *ConnectionHub) SendTo(id string, msg any) error {
	conn, err := h.GetConn(id)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}

// Close closes every connection and waits until their handlers have removed them.
func (h *ConnectionHub) Close() {
	ctx := wrap.WithAction(context.Background(), "hub_close")

	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		_ = h.Delete(conn)
	}

	h.wg.Wait()

	h.l.Info(ctx, "all websocket connections closed gracefully")
}

func (h *ConnectionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ConnectionHub) GetConn(id string) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[id]
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return conn, nil
}
