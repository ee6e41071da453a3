package realtime

import (
	"context"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/broadcast"
)

// Channel is a joined broadcast channel.
type Channel interface {
	Send(ctx context.Context, event string, payload []byte) error
	// Leave releases the channel. No handler call starts after it returns. It is safe to
	// call from inside the handler.
	Leave() error
}

// Broker opens broadcast channels. Join returns once the channel is ready.
// A nil handler opens a send-only channel.
type Broker interface {
	Join(ctx context.Context, channel string, handler broadcast.Handler) (Channel, error)
}

// ChangeFeed delivers row changes matching sub. No handler call starts after the
// returned release func returns, and release may run inside the handler.
type ChangeFeed interface {
	Subscribe(ctx context.Context, sub models.ChangeSubscription, handler func(models.RowChange)) (release func() error, err error)
}

type WatchID int

// Geolocator is a device position source.
type Geolocator interface {
	Available() bool
	WatchPosition(onPosition func(models.Position), onError func(error)) (WatchID, error)
	ClearWatch(id WatchID)
}
