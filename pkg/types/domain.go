package types

// Deployment is the observed state of one model's serving stack.
type Deployment struct {
	// Model name.
	// example: my-llm
	Model string `json:"model" example:"my-llm"`
	// Lifecycle phase: absent, starting, ready, stopping or failed.
	// example: ready
	Phase string `json:"phase" example:"ready"`
	// Serving address; set only when phase is ready.
	// example: localhost:8000
	Endpoint string `json:"endpoint,omitempty" example:"localhost:8000"`
	// Most recent failure, if any.
	LastError string `json:"last_error,omitempty"`
}
