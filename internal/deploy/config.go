package deploy

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ControllerConfig fields are unset.
const (
	defaultReadyTimeout     = 2 * time.Minute
	defaultProbeInterval    = 500 * time.Millisecond
	defaultProbeMaxInterval = 10 * time.Second
	defaultProbeTimeout     = 2 * time.Second
)

// ControllerConfig encapsulates all tunables for Controller construction.
type ControllerConfig struct {
	Backend Backend
	Kinds   KindResolver
	// Prober defaults to an HTTP prober against /v2/health/ready.
	Prober    Prober
	Publisher EventPublisher
	Logger    zerolog.Logger

	// ReadyTimeout caps the total time BringUp waits for a health probe to pass.
	ReadyTimeout time.Duration
	// ProbeInterval is the first backoff delay; it grows up to ProbeMaxInterval.
	ProbeInterval    time.Duration
	ProbeMaxInterval time.Duration
	// ProbeTimeout bounds a single health probe and every Status call.
	ProbeTimeout time.Duration
}

// NewWithConfig constructs a Controller from ControllerConfig.
func NewWithConfig(cfg ControllerConfig) *Controller {
	c := &Controller{
		backend:  cfg.Backend,
		kinds:    cfg.Kinds,
		prober:   cfg.Prober,
		pub:      cfg.Publisher,
		log:      cfg.Logger,
		inflight: make(map[string]Phase),
	}
	if c.prober == nil {
		c.prober = NewHTTPProber()
	}
	if c.pub == nil {
		c.pub = noopPublisher{}
	}
	if cfg.ReadyTimeout <= 0 {
		c.readyTimeout = defaultReadyTimeout
	} else {
		c.readyTimeout = cfg.ReadyTimeout
	}
	if cfg.ProbeInterval <= 0 {
		c.probeInterval = defaultProbeInterval
	} else {
		c.probeInterval = cfg.ProbeInterval
	}
	if cfg.ProbeMaxInterval <= 0 {
		c.probeMaxInterval = defaultProbeMaxInterval
	} else {
		c.probeMaxInterval = cfg.ProbeMaxInterval
	}
	if c.probeMaxInterval < c.probeInterval {
		c.probeMaxInterval = c.probeInterval
	}
	if cfg.ProbeTimeout <= 0 {
		c.probeTimeout = defaultProbeTimeout
	} else {
		c.probeTimeout = cfg.ProbeTimeout
	}
	return c
}
