package realtime

import (
	"context"

	"github.com/hpyride/hpyride/pkg/broadcast"
)

type hubBroker struct {
	hub *broadcast.Hub
}

// NewHubBroker serves channels from an in-process hub.
func NewHubBroker(hub *broadcast.Hub) Broker {
	return &hubBroker{hub: hub}
}

func (b *hubBroker) Join(ctx context.Context, channel string, handler broadcast.Handler) (Channel, error) {
	m, err := b.hub.Join(ctx, channel, handler)
	if err != nil {
		return nil, err
	}
	return m, nil
}
