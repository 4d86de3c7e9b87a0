package deploy

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedModelKind is returned by BringUp for models that have no serving stack.
	ErrUnsupportedModelKind = errors.New("unsupported model kind")
	// ErrConflictingOperation is returned when a BringUp/BringDown for the same model is already running.
	ErrConflictingOperation = errors.New("conflicting operation in flight")
	// ErrInvalidModelName is returned for an empty model name.
	ErrInvalidModelName = errors.New("model name is required")
	// ErrNotReady is returned by Endpoint when the stack is not serving.
	ErrNotReady = errors.New("deployment not ready")
	// ErrModelNotFound is returned by KindResolvers that do not know a model.
	ErrModelNotFound = errors.New("model not found")

	// Failure causes carried in DeploymentStatus.LastError.
	ErrPrerequisite   = errors.New("missing runtime prerequisite")
	ErrPortConflict   = errors.New("port conflict")
	ErrContainerCrash = errors.New("container crashed")
	ErrReadyTimeout   = errors.New("health check timed out")
	ErrTeardown       = errors.New("teardown incomplete")

	// ErrIncompleteStack marks containers that exist but publish no serving
	// port, typically left behind by a `compose up` that failed midway.
	ErrIncompleteStack = errors.New("stack publishes no serving endpoint")
)

// unsupportedKindError names the offending model and kind.
type unsupportedKindError struct {
	model string
	kind  ModelKind
}

func (e unsupportedKindError) Error() string {
	return fmt.Sprintf("%s: model %q has kind %q (only %q can be deployed)", ErrUnsupportedModelKind, e.model, e.kind, KindGenerate)
}

func (e unsupportedKindError) Unwrap() error { return ErrUnsupportedModelKind }

// conflictError names the operation already running for a model.
type conflictError struct {
	model    string
	inFlight Phase
}

func (e conflictError) Error() string {
	return fmt.Sprintf("%s: model %q is %s", ErrConflictingOperation, e.model, e.inFlight)
}

func (e conflictError) Unwrap() error { return ErrConflictingOperation }

// notReadyError carries the observed status of a target that cannot serve.
type notReadyError struct{ status DeploymentStatus }

func (e notReadyError) Error() string {
	msg := fmt.Sprintf("%s: model %q is %s", ErrNotReady, e.status.Model, e.status.Phase)
	if e.status.LastError != "" {
		msg += ": " + e.status.LastError
	}
	return msg
}

func (e notReadyError) Unwrap() error { return ErrNotReady }

// readyTimeoutError reports readiness exhaustion and the last probe failure.
type readyTimeoutError struct {
	after    time.Duration
	attempts int
	last     error
}

func (e readyTimeoutError) Error() string {
	msg := fmt.Sprintf("%s after %s (%d probes)", ErrReadyTimeout, e.after, e.attempts)
	if e.last != nil {
		msg += ": last probe: " + e.last.Error()
	}
	return msg
}

func (e readyTimeoutError) Unwrap() error { return ErrReadyTimeout }

// IsUnsupportedModelKind reports whether err rejects a non-servable model.
func IsUnsupportedModelKind(err error) bool { return errors.Is(err, ErrUnsupportedModelKind) }

// IsConflictingOperation reports whether err rejects an overlapping operation.
func IsConflictingOperation(err error) bool { return errors.Is(err, ErrConflictingOperation) }

// IsNotReady reports whether err indicates a target that is not Ready.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }

// IsModelNotFound reports whether err indicates an unknown model name.
func IsModelNotFound(err error) bool { return errors.Is(err, ErrModelNotFound) }

// IsInvalidModelName reports whether err rejects an empty model name.
func IsInvalidModelName(err error) bool { return errors.Is(err, ErrInvalidModelName) }
