package deploy

import (
	"context"
	"fmt"
	"time"
)

// BringDown stops the model's stack and removes its containers. Bringing down
// an absent model is a successful no-op. Leftover containers after Stop are
// reported as a Failed status carrying ErrTeardown.
func (c *Controller) BringDown(ctx context.Context, model string) (DeploymentStatus, error) {
	if !validModelName(model) {
		return DeploymentStatus{Model: model}, ErrInvalidModelName
	}
	release, err := c.begin(model, PhaseStopping)
	if err != nil {
		return DeploymentStatus{Model: model}, err
	}
	defer release()

	startTs := time.Now()
	h, err := c.backend.Lookup(ctx, model)
	if err != nil {
		return failedStatus(model, fmt.Errorf("lookup: %w", err)), nil
	}
	if h == nil {
		c.log.Info().Str("event", "bring_down_noop").Str("model", model).Msg("deploy")
		return absentStatus(model), nil
	}

	from := PhaseReady
	if obs, qerr := c.observe(ctx, *h); qerr == nil {
		from = obs.Phase
	}
	c.transition(model, from, PhaseStopping)
	c.log.Info().Str("event", "bring_down_start").Str("model", model).Str("project", h.Project).Msg("deploy")
	c.pub.Publish(Event{Name: "bring_down_start", ModelID: model, Fields: map[string]any{"desired": DesiredDown}})

	if err := c.backend.Stop(ctx, *h); err != nil {
		c.transition(model, PhaseStopping, PhaseFailed)
		return failedStatus(model, fmt.Errorf("%w: %v", ErrTeardown, err)), nil
	}
	left, err := c.backend.Lookup(ctx, model)
	if err != nil {
		c.transition(model, PhaseStopping, PhaseFailed)
		return failedStatus(model, fmt.Errorf("%w: verify: %v", ErrTeardown, err)), nil
	}
	if left != nil {
		c.transition(model, PhaseStopping, PhaseFailed)
		return failedStatus(model, fmt.Errorf("%w: containers of %s still present", ErrTeardown, left.Project)), nil
	}
	c.transition(model, PhaseStopping, PhaseAbsent)
	c.log.Info().Str("event", "bring_down_done").Str("model", model).Int64("dur_ms", time.Since(startTs).Milliseconds()).Msg("deploy")
	return absentStatus(model), nil
}
