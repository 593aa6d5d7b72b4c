package widgetdata

import "time"

// ReaderOption is a functional option for configuring a Reader.
type ReaderOption interface {
	apply(*readerConfig)
}

type readerConfig struct {
	name     string
	kind     Kind
	observer Observer
	now      func() time.Time
}

type optionFunc func(*readerConfig)

func (f optionFunc) apply(c *readerConfig) {
	f(c)
}

// WithName sets the widget name reported in events (defaults to the kind).
func WithName(name string) ReaderOption {
	return optionFunc(func(c *readerConfig) {
		c.name = name
	})
}

// WithKind overrides the widget kind reported in events. Used when one
// payload type backs several widgets, e.g. the lock screen widget.
func WithKind(kind Kind) ReaderOption {
	return optionFunc(func(c *readerConfig) {
		c.kind = kind
	})
}

// WithObserver sets the observer notified of every resolution.
func WithObserver(observer Observer) ReaderOption {
	return optionFunc(func(c *readerConfig) {
		c.observer = observer
	})
}

// WithClock replaces time.Now for event timing.
func WithClock(now func() time.Time) ReaderOption {
	return optionFunc(func(c *readerConfig) {
		c.now = now
	})
}
