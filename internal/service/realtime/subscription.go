package realtime

import (
	"context"
	"sync"

	"github.com/hpyride/hpyride/pkg/logger"
	"github.com/hpyride/hpyride/pkg/metrics"
)

// Subscription is a scoped realtime subscription. Release it with Unsubscribe.
type Subscription struct {
	topic   string
	kind    string
	release func() error
	log     logger.Logger
	once    sync.Once
}

func newSubscription(topic, kind string, release func() error, log logger.Logger) *Subscription {
	metrics.RealtimeSubscriptionsGauge.WithLabelValues(kind).Inc()
	return &Subscription{topic: topic, kind: kind, release: release, log: log}
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe is idempotent and may be called from inside the callback. No callback
// starts after it returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		metrics.RealtimeSubscriptionsGauge.WithLabelValues(s.kind).Dec()
		if err := s.release(); err != nil {
			s.log.Warn(context.Background(), "failed to release subscription", "topic", s.topic, "error", err.Error())
		}
	})
}
