package event

import "sync"

// Collector is an ordered, append-only sequence of events shared by all
// sources during a run. It is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []*Event
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{
		events: make([]*Event, 0),
	}
}

// Append adds events to the end of the collection in the order given
func (c *Collector) Append(events ...*Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, evt := range events {
		if evt == nil {
			continue
		}
		c.events = append(c.events, evt)
	}
}

// Len returns the number of collected events
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Events returns a copy of the collected events in insertion order.
// Reordering the returned slice does not affect the collector.
func (c *Collector) Events() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}
