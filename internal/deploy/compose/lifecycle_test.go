package compose

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/registry"
)

const (
	psCreatedNoPorts = `{"Name":"llm_triton_server","Service":"tritonserver","State":"created","ExitCode":0,"Publishers":[]}`
	bindFailure      = "Error response from daemon: driver failed programming external connectivity on endpoint llm_triton_server: Bind for 0.0.0.0:8001 failed: port is already allocated"
)

// dockerState emulates the daemon side of compose: up can fail after
// creating containers, down removes whatever exists.
type dockerState struct {
	mu        sync.Mutex
	ps        string
	upFails   bool
	downFails bool
	ups       int
	downs     int
}

func (d *dockerState) handle(sub string, _ []string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch sub {
	case "up":
		d.ups++
		if d.upFails {
			d.ps = psCreatedNoPorts
			return nil, &CommandError{Cmd: "docker compose up", Err: errors.New("exit status 1"), Stderr: bindFailure}
		}
		d.ps = psRunning
	case "down":
		d.downs++
		if d.downFails {
			return nil, &CommandError{Cmd: "docker compose down", Err: errors.New("exit status 1"), Stderr: "Cannot connect to the Docker daemon"}
		}
		d.ps = ""
	case "ps":
		return []byte(d.ps), nil
	}
	return nil, nil
}

func (d *dockerState) set(fn func(d *dockerState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *dockerState) counts() (ups, downs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ups, d.downs
}

type alwaysReady struct{}

func (alwaysReady) Probe(context.Context, string) error { return nil }

func newComposeController(t *testing.T, d *dockerState) *deploy.Controller {
	t.Helper()
	b := newTestBackend(t, &scriptRunner{handler: d.handle}, zipSource{"Dockerfile": "FROM scratch\n"})
	return deploy.NewWithConfig(deploy.ControllerConfig{
		Backend:          b,
		Kinds:            registry.NewStatic(map[string]string{"llm": "generate"}),
		Prober:           alwaysReady{},
		Logger:           zerolog.Nop(),
		ReadyTimeout:     5 * time.Second,
		ProbeInterval:    time.Millisecond,
		ProbeMaxInterval: 5 * time.Millisecond,
		ProbeTimeout:     50 * time.Millisecond,
	})
}

func TestFailedUpRemovesCreatedContainers(t *testing.T) {
	d := &dockerState{upFails: true}
	c := newComposeController(t, d)
	ctx := context.Background()

	st, err := c.BringUp(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, deploy.PhaseFailed, st.Phase)
	assert.Contains(t, st.LastError, "port is already allocated")
	ups, downs := d.counts()
	assert.Equal(t, 1, ups)
	assert.Equal(t, 1, downs)

	assert.Equal(t, deploy.PhaseAbsent, c.Status(ctx, "llm").Phase)

	d.set(func(d *dockerState) { d.upFails = false })
	st, err = c.BringUp(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, deploy.PhaseReady, st.Phase, "last_error=%s", st.LastError)
	assert.Equal(t, "localhost:8000", st.Endpoint)
}

func TestLeftoverCreatedStackIsRecreated(t *testing.T) {
	d := &dockerState{upFails: true, downFails: true}
	c := newComposeController(t, d)
	ctx := context.Background()

	st, err := c.BringUp(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, deploy.PhaseFailed, st.Phase)
	assert.Contains(t, st.LastError, "port is already allocated")
	assert.Contains(t, st.LastError, "cleanup")

	// The created container survived the failed cleanup and publishes nothing.
	st = c.Status(ctx, "llm")
	assert.Equal(t, deploy.PhaseFailed, st.Phase)
	assert.Contains(t, st.LastError, deploy.ErrIncompleteStack.Error())

	d.set(func(d *dockerState) { d.upFails, d.downFails = false, false })
	start := time.Now()
	st, err = c.BringUp(ctx, "llm")
	require.NoError(t, err)
	assert.Equal(t, deploy.PhaseReady, st.Phase, "last_error=%s", st.LastError)
	assert.Less(t, time.Since(start), time.Second)
	ups, downs := d.counts()
	assert.Equal(t, 2, ups)
	assert.Equal(t, 2, downs, "failed cleanup plus the recreate")
}
