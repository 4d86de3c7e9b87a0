package types

// InferRequest is the body of POST /infer.
type InferRequest struct {
	// Model to query.
	// example: my-llm
	Model string `json:"model" example:"my-llm"`
	// Prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Model version; defaults to the server configuration.
	// example: 1
	ModelVersion string `json:"model_version,omitempty" example:"1"`
	// Server address. When empty the address of the model's Ready deployment is used.
	// example: localhost:8000
	ServerURL string `json:"server_url,omitempty" example:"localhost:8000"`
	// Per-request timeout in milliseconds; defaults to the server configuration.
	// example: 30000
	TimeoutMS int64 `json:"timeout_ms,omitempty" example:"30000"`
}

// InferResponse reports one inference call.
type InferResponse struct {
	// Request id sent to the serving stack.
	// example: 3f0c1c2e-8a4b-4c71-9d55-0d1f5e0c2b7a
	ID string `json:"id" example:"3f0c1c2e-8a4b-4c71-9d55-0d1f5e0c2b7a"`
	// Outcome: ok, timeout, connection_error, server_error or decode_error.
	// example: ok
	Status string `json:"status" example:"ok"`
	// Generated text; empty unless status is ok.
	// example: Waves fold on the shore
	Output string `json:"output,omitempty" example:"Waves fold on the shore"`
	// Elapsed wall time in milliseconds.
	// example: 212
	ElapsedMS int64 `json:"elapsed_ms" example:"212"`
	// Version that answered, when the server reports it.
	// example: 1
	ModelVersion string `json:"model_version,omitempty" example:"1"`
	// Diagnostic for failed calls.
	Error string `json:"error,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// DeploymentsResponse is returned by GET /deployments.
type DeploymentsResponse struct {
	Deployments []Deployment `json:"deployments"`
}
