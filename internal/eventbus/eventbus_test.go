package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversMatchingEvents(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []ZoneCreated
	done := make(chan struct{}, 1)

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventZoneCreated}}, func(ctx context.Context, ev *Envelope) {
		var p ZoneCreated
		if err := ev.Decode(&p); err == nil {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		}
		done <- struct{}{}
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, Emit(ctx, bus, "world", EventRoomsCarved, RoomsCarved{ZoneID: "ignored"}))
	require.NoError(t, Emit(ctx, bus, "world", EventZoneCreated, ZoneCreated{ZoneID: "z1", Biome: "Taiga"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "z1", got[0].ZoneID)
	assert.Equal(t, "Taiga", got[0].Biome)
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, 1),
		closed:      make(chan struct{}),
	}
	ctx := context.Background()

	require.NoError(t, mb.Publish(ctx, &Envelope{EventType: "a"}))
	require.NoError(t, mb.Publish(ctx, &Envelope{EventType: "b"}))

	s := mb.Metrics()
	assert.Equal(t, uint64(1), s.Published)
	assert.Equal(t, uint64(1), s.Dropped)
	assert.Equal(t, 1, s.InFlight)
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	err := bus.Publish(context.Background(), &Envelope{EventType: "x"})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestEmitNilBus(t *testing.T) {
	assert.NoError(t, Emit(context.Background(), nil, "world", EventZoneCreated, ZoneCreated{}))
}

func TestMetricsExporterCollect(t *testing.T) {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, 4),
		closed:      make(chan struct{}),
	}
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(mb, reg)

	require.NoError(t, mb.Publish(context.Background(), &Envelope{EventType: "a"}))
	require.NoError(t, mb.Publish(context.Background(), &Envelope{EventType: "b"}))

	prev := me.collect(Stats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 2.0, testutil.ToFloat64(me.inflight))

	me.collect(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published), "no double counting")
}
