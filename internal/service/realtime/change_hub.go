package realtime

import (
	"context"
	"encoding/json"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/broadcast"
)

// ChangeHub fans row changes out to filtered subscribers. Changes are routed
// per table and filtered on the subscriber side.
type ChangeHub struct {
	hub *broadcast.Hub
}

func NewChangeHub(hub *broadcast.Hub) *ChangeHub {
	return &ChangeHub{hub: hub}
}

func (h *ChangeHub) Subscribe(ctx context.Context, sub models.ChangeSubscription, handler func(models.RowChange)) (func() error, error) {
	if handler == nil {
		return nil, ErrNilCallback
	}

	m, err := h.hub.Join(ctx, sub.Table, func(msg broadcast.Message) {
		var c models.RowChange
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return
		}
		if sub.Matches(c) {
			handler(c)
		}
	})
	if err != nil {
		return nil, err
	}
	return m.Leave, nil
}

// Dispatch delivers c to every matching subscriber and returns how many subscribers
// of the table saw it.
func (h *ChangeHub) Dispatch(c models.RowChange) (int, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return 0, err
	}
	return h.hub.Publish(broadcast.Message{
		Channel: c.Table,
		Event:   string(c.Type),
		Payload: payload,
	}), nil
}
