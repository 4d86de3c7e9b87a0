// Package compose implements deploy.Backend with `docker compose`.
//
// Every model gets its own compose project (remyx-<model>) in a working
// directory under the configured deploy dir. The directory holds the
// extracted deployment package and, when the package ships none, a default
// Triton project rendered from compose-go types. All docker invocations go
// through a Runner so tests can script the CLI.
package compose
