package deploy

import (
	"context"
	"io"
)

// Handle identifies a stack known to the backend.
type Handle struct {
	Model    string
	Project  string
	Endpoint string // host:port of the HTTP serving port
	WorkDir  string
}

// StackState is the container-level condition of a stack.
type StackState string

const (
	StackRunning StackState = "running"
	StackCreated StackState = "created"
	StackExited  StackState = "exited"
)

// StackHealth is the result of a backend health query. It says nothing about
// whether the model inside answers requests; that is the Prober's job.
type StackHealth struct {
	State  StackState
	Detail string
}

// Backend is the container-orchestration capability the controller consumes.
type Backend interface {
	// Start creates and starts the stack for target and returns its handle.
	// It returns once the containers are launched, not once they serve.
	Start(ctx context.Context, target DeploymentTarget) (Handle, error)
	// Stop gracefully stops the stack and releases its ports and volumes.
	Stop(ctx context.Context, h Handle) error
	// Lookup returns the stack for model, or nil when none exists.
	Lookup(ctx context.Context, model string) (*Handle, error)
	// Health reports the container-level state of the stack.
	Health(ctx context.Context, h Handle) (StackHealth, error)
}

// Prober checks whether a serving endpoint is ready to answer requests.
type Prober interface {
	Probe(ctx context.Context, endpoint string) error
}

// KindResolver looks up the kind of a trained model.
type KindResolver interface {
	ModelKind(ctx context.Context, model string) (ModelKind, error)
}

// PackageSource writes a model's deployment package (a zip archive) to w.
type PackageSource interface {
	FetchPackage(ctx context.Context, model string, w io.Writer) error
}
