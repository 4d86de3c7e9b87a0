// Package deploy owns the lifecycle of a model's local serving stack. It is
// structured into small files by concern:
//
//   - controller.go: Controller type, constructor, per-model operation guard.
//   - config.go: ControllerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: DeploymentTarget, DeploymentStatus and the Phase state machine.
//   - backend.go: the capabilities the controller consumes (Backend, Prober,
//     KindResolver, PackageSource).
//   - errors.go: error types and helpers (IsUnsupportedModelKind, IsConflictingOperation, ...).
//   - bring_up.go / bring_down.go / status.go: the three public operations.
//   - readiness.go: bounded readiness polling with exponential backoff.
//   - probe.go: HTTP health probe against a KServe v2 endpoint.
//   - events.go: lifecycle events for observers (metrics, tests).
//
// The authoritative state of a stack lives in the orchestration backend. The
// controller keeps only the set of operations currently in flight so that
// overlapping BringUp/BringDown calls for one model are rejected and Status can
// report Starting/Stopping while they run.
//
// A concrete docker compose Backend lives in the compose subpackage.
package deploy
