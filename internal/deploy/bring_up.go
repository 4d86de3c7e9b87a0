package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BringUp ensures the model's serving stack is running and ready.
//
// Only servable kinds are accepted; other kinds fail with
// ErrUnsupportedModelKind before any backend call. An already Ready stack is
// returned as is. A Failed stack is torn down and recreated once. Outcomes
// such as a crash or a health-check timeout are reported as a Failed status
// with a nil error; errors are reserved for requests that were rejected.
func (c *Controller) BringUp(ctx context.Context, model string) (DeploymentStatus, error) {
	if !validModelName(model) {
		return DeploymentStatus{Model: model}, ErrInvalidModelName
	}
	startTs := time.Now()
	kind, err := c.kinds.ModelKind(ctx, model)
	if err != nil {
		return DeploymentStatus{Model: model}, fmt.Errorf("resolve kind of %q: %w", model, err)
	}
	if !kind.Servable() {
		c.log.Info().Str("event", "bring_up_rejected").Str("model", model).Str("kind", string(kind)).Msg("deploy")
		c.pub.Publish(Event{Name: "bring_up_rejected", ModelID: model, Fields: map[string]any{"kind": kind}})
		return DeploymentStatus{Model: model}, unsupportedKindError{model: model, kind: kind}
	}

	release, err := c.begin(model, PhaseStarting)
	if err != nil {
		return DeploymentStatus{Model: model}, err
	}
	defer release()

	target := DeploymentTarget{ModelName: model, ModelKind: kind, DesiredState: DesiredUp}
	c.log.Info().Str("event", "bring_up_start").Str("model", model).Str("desired", string(target.DesiredState)).Msg("deploy")
	c.pub.Publish(Event{Name: "bring_up_start", ModelID: model, Fields: map[string]any{"desired": target.DesiredState}})

	st := c.bringUp(ctx, target)
	ev := c.log.Info()
	if st.Phase == PhaseFailed {
		ev = c.log.Warn().Str("error", st.LastError)
	}
	ev.Str("event", "bring_up_done").Str("model", model).Str("phase", string(st.Phase)).Int64("dur_ms", time.Since(startTs).Milliseconds()).Msg("deploy")
	c.pub.Publish(Event{Name: "bring_up_done", ModelID: model, Fields: map[string]any{"phase": st.Phase, "duration": time.Since(startTs)}})
	return st, nil
}

func (c *Controller) bringUp(ctx context.Context, target DeploymentTarget) DeploymentStatus {
	model := target.ModelName
	existing, err := c.backend.Lookup(ctx, model)
	if err != nil {
		return failedStatus(model, fmt.Errorf("lookup: %w", err))
	}

	from := PhaseAbsent
	if existing != nil {
		obs, qerr := c.observe(ctx, *existing)
		if qerr != nil {
			return obs
		}
		switch obs.Phase {
		case PhaseReady:
			c.log.Debug().Str("event", "already_ready").Str("model", model).Str("endpoint", obs.Endpoint).Msg("deploy")
			return obs
		case PhaseStarting:
			// Containers are up and the model is still loading: wait, don't recreate.
			return c.finishStart(ctx, *existing)
		case PhaseFailed:
			c.log.Info().Str("event", "recreate").Str("model", model).Str("reason", obs.LastError).Msg("deploy")
			c.pub.Publish(Event{Name: "recreate", ModelID: model, Fields: map[string]any{"reason": obs.LastError}})
			if err := c.backend.Stop(ctx, *existing); err != nil {
				return failedStatus(model, fmt.Errorf("%w: remove failed stack: %v", ErrTeardown, err))
			}
			from = PhaseFailed
		}
	}

	c.transition(model, from, PhaseStarting)
	h, err := c.backend.Start(ctx, target)
	if err != nil {
		c.transition(model, PhaseStarting, PhaseFailed)
		return failedStatus(model, err)
	}
	c.log.Debug().Str("event", "stack_started").Str("model", model).Str("project", h.Project).Str("endpoint", h.Endpoint).Msg("deploy")
	return c.finishStart(ctx, h)
}

// finishStart waits for readiness and settles the phase. On a health-check
// timeout the stack is stopped so its ports are released; crashed stacks are
// left in place for diagnosis and reported as Failed.
func (c *Controller) finishStart(ctx context.Context, h Handle) DeploymentStatus {
	err := c.awaitReady(ctx, h)
	if err == nil {
		c.transition(h.Model, PhaseStarting, PhaseReady)
		return readyStatus(h.Model, h.Endpoint)
	}
	c.transition(h.Model, PhaseStarting, PhaseFailed)
	if errors.Is(err, ErrReadyTimeout) {
		if serr := c.backend.Stop(ctx, h); serr != nil {
			c.log.Warn().Str("event", "timeout_teardown_failed").Str("model", h.Model).Err(serr).Msg("deploy")
			err = fmt.Errorf("%w (teardown: %v)", err, serr)
		}
	}
	return failedStatus(h.Model, err)
}
