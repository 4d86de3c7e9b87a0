package inference

import (
	"errors"
	"time"
)

// Status classifies the outcome of one inference call.
type Status string

const (
	StatusOK              Status = "ok"
	StatusTimeout         Status = "timeout"
	StatusConnectionError Status = "connection_error"
	StatusServerError     Status = "server_error"
	StatusDecodeError     Status = "decode_error"
)

// ErrInvalidRequest is returned without any network activity when a Request
// lacks a server address, a model name or a positive timeout.
var ErrInvalidRequest = errors.New("invalid inference request")

// IsInvalidRequest reports whether err rejects a malformed Request.
func IsInvalidRequest(err error) bool { return errors.Is(err, ErrInvalidRequest) }

// Request is one prompt for a model served over KServe v2 HTTP.
type Request struct {
	ModelName string
	// ModelVersion is optional; empty targets the server's default version.
	ModelVersion  string
	ServerAddress string
	Prompt        string
	Timeout       time.Duration
}

// Result is the outcome of one call. Output is set only when Status is
// StatusOK; Err carries the diagnostic otherwise.
type Result struct {
	Output       string
	Elapsed      time.Duration
	Status       Status
	Err          error
	RequestID    string
	ModelVersion string
}

// OK reports whether the call produced an output.
func (r Result) OK() bool { return r.Status == StatusOK }

// Diagnostic is the failure message, empty on success.
func (r Result) Diagnostic() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
