package world

import (
	"os"

	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
)

// EventSource is the Source of envelopes published by this package.
const EventSource = "worldgen"

// Option customizes the tiler, the carver and the generator.
type Option func(*options)

type options struct {
	log *logging.Logger
	rec Recorder
	bus eventbus.EventBus
}

func defaultOptions() options {
	return options{
		log: logging.NewWriterLogger("world", os.Stdout, logging.INFO),
		rec: NopRecorder(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger routes generation logs to l.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder reports metrics and warnings to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.rec = r
		}
	}
}

// WithEventBus publishes ZoneCreated and RoomsCarved events on bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(o *options) {
		o.bus = bus
	}
}
