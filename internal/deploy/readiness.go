package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// probe runs a single health probe bounded by probeTimeout.
func (c *Controller) probe(ctx context.Context, endpoint string) error {
	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	return c.prober.Probe(pctx, endpoint)
}

// observe derives the phase of an existing stack from its container state and
// one health probe. A non-nil error means the backend could not be queried.
func (c *Controller) observe(ctx context.Context, h Handle) (DeploymentStatus, error) {
	health, err := c.backend.Health(ctx, h)
	if err != nil {
		return failedStatus(h.Model, fmt.Errorf("health query: %w", err)), err
	}
	if health.State == StackExited {
		return failedStatus(h.Model, crashError(health.Detail)), nil
	}
	if h.Endpoint == "" {
		// Nothing to probe and nothing will appear: only a recreate can fix it.
		return failedStatus(h.Model, incompleteError(health)), nil
	}
	if health.State != StackRunning {
		s := transientStatus(h.Model, PhaseStarting)
		s.LastError = fmt.Sprintf("containers %s", health.State)
		return s, nil
	}
	if err := c.probe(ctx, h.Endpoint); err != nil {
		s := transientStatus(h.Model, PhaseStarting)
		s.LastError = err.Error()
		return s, nil
	}
	return readyStatus(h.Model, h.Endpoint), nil
}

func incompleteError(health StackHealth) error {
	if health.Detail == "" {
		return fmt.Errorf("%w: containers %s", ErrIncompleteStack, health.State)
	}
	return fmt.Errorf("%w: containers %s: %s", ErrIncompleteStack, health.State, health.Detail)
}

// awaitReady polls the stack with exponential backoff until the health probe
// passes, the containers exit, or readyTimeout elapses.
func (c *Controller) awaitReady(ctx context.Context, h Handle) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.probeInterval
	b.MaxInterval = c.probeMaxInterval
	b.MaxElapsedTime = 0 // bounded by waitCtx

	attempts := 0
	var last error
	op := func() error {
		attempts++
		health, err := c.backend.Health(waitCtx, h)
		if err != nil {
			last = fmt.Errorf("health query: %w", err)
			return last
		}
		switch health.State {
		case StackExited:
			return backoff.Permanent(crashError(health.Detail))
		case StackRunning:
		default:
			last = fmt.Errorf("containers %s", health.State)
			return last
		}
		if err := c.probe(waitCtx, h.Endpoint); err != nil {
			// A probe cut short by the deadline says nothing about the server.
			if waitCtx.Err() == nil {
				last = err
			}
			return err
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.log.Debug().Str("event", "probe_not_ready").Str("model", h.Model).Int("attempt", attempts).Dur("next", next).Err(err).Msg("deploy")
		c.pub.Publish(Event{Name: "probe_not_ready", ModelID: h.Model, Fields: map[string]any{"attempt": attempts, "error": err.Error()}})
	}

	err := backoff.RetryNotify(op, backoff.WithContext(b, waitCtx), notify)
	switch {
	case err == nil:
		c.log.Debug().Str("event", "probe_ready").Str("model", h.Model).Int("attempts", attempts).Msg("deploy")
		return nil
	case errors.Is(err, ErrContainerCrash):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	case waitCtx.Err() != nil:
		return readyTimeoutError{after: c.readyTimeout, attempts: attempts, last: last}
	default:
		return err
	}
}

func crashError(detail string) error {
	if detail == "" {
		return ErrContainerCrash
	}
	return fmt.Errorf("%w: %s", ErrContainerCrash, detail)
}
