package deploy

import (
	"context"
	"fmt"
)

// statusBudget bounds a Status call as a multiple of the probe timeout:
// one backend lookup, one health query and one probe.
const statusBudget = 3

// Status reports the observed state of model without side effects.
// While an operation for model is in flight the transient phase is returned
// without touching the backend.
func (c *Controller) Status(ctx context.Context, model string) DeploymentStatus {
	if !validModelName(model) {
		return failedStatus(model, ErrInvalidModelName)
	}
	if p, ok := c.inflightPhase(model); ok {
		return transientStatus(model, p)
	}
	ctx, cancel := context.WithTimeout(ctx, statusBudget*c.probeTimeout)
	defer cancel()

	h, err := c.backend.Lookup(ctx, model)
	if err != nil {
		return failedStatus(model, fmt.Errorf("lookup: %w", err))
	}
	if h == nil {
		return absentStatus(model)
	}
	st, _ := c.observe(ctx, *h)
	return st
}

// Endpoint returns the serving address of model, or an error wrapping
// ErrNotReady when the stack is not Ready.
func (c *Controller) Endpoint(ctx context.Context, model string) (string, error) {
	st := c.Status(ctx, model)
	if !st.Ready() {
		return "", notReadyError{status: st}
	}
	return st.Endpoint, nil
}

// List reports the status of every model in models.
func (c *Controller) List(ctx context.Context, models []string) []DeploymentStatus {
	out := make([]DeploymentStatus, 0, len(models))
	for _, m := range models {
		out = append(out, c.Status(ctx, m))
	}
	return out
}
