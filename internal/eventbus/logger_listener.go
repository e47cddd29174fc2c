package eventbus

import (
	"context"

	"github.com/annel0/mmo-worldgen/internal/logging"
)

// StartLoggingListener logs every event at DEBUG. Non-blocking.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		logging.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logging.Info("EventBus logging listener subscribed to all events")
	return sub, nil
}
