package deploy

import "sync"

// Event represents a deployment lifecycle event.
// Minimal and stable: name + model and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the controller. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Phases returns the sequence of phases entered by model, in order.
func (p *MemoryPublisher) Phases(model string) []Phase {
	var out []Phase
	for _, e := range p.Events() {
		if e.Name != "phase" || e.ModelID != model {
			continue
		}
		if to, ok := e.Fields["to"].(Phase); ok {
			out = append(out, to)
		}
	}
	return out
}
