package deploy

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Controller brings model serving stacks up and down and reports their status.
// It is safe for concurrent use; operations for distinct models run in parallel.
type Controller struct {
	backend Backend
	kinds   KindResolver
	prober  Prober
	pub     EventPublisher
	log     zerolog.Logger

	readyTimeout     time.Duration
	probeInterval    time.Duration
	probeMaxInterval time.Duration
	probeTimeout     time.Duration

	mu sync.RWMutex
	// inflight holds the transient phase of every BringUp/BringDown in progress.
	inflight map[string]Phase
}

// New constructs a Controller with package defaults.
func New(backend Backend, kinds KindResolver) *Controller {
	return NewWithConfig(ControllerConfig{Backend: backend, Kinds: kinds})
}

// begin registers an operation for model or rejects it when one is running.
// The returned release func must be called when the operation ends.
func (c *Controller) begin(model string, phase Phase) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.inflight[model]; ok {
		return nil, conflictError{model: model, inFlight: cur}
	}
	c.inflight[model] = phase
	return func() {
		c.mu.Lock()
		delete(c.inflight, model)
		c.mu.Unlock()
	}, nil
}

func (c *Controller) inflightPhase(model string) (Phase, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.inflight[model]
	return p, ok
}

// transition records a phase change for model. Transient phases are kept in
// the in-flight table so concurrent Status calls observe them.
func (c *Controller) transition(model string, from, to Phase) {
	if !from.CanTransition(to) {
		c.log.Error().Str("event", "illegal_transition").Str("model", model).Str("from", string(from)).Str("to", string(to)).Msg("deploy")
		return
	}
	if to == PhaseStarting || to == PhaseStopping {
		c.mu.Lock()
		if _, ok := c.inflight[model]; ok {
			c.inflight[model] = to
		}
		c.mu.Unlock()
	}
	c.log.Debug().Str("event", "phase").Str("model", model).Str("from", string(from)).Str("to", string(to)).Msg("deploy")
	c.pub.Publish(Event{Name: "phase", ModelID: model, Fields: map[string]any{"from": from, "to": to}})
}

func validModelName(model string) bool { return strings.TrimSpace(model) != "" }
