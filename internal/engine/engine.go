// Package engine drives a rebuild: it stages the workspace, plans packaging,
// signing and deployment onto a command queue, executes the queue, and cleans
// up afterwards.
//
// Files:
//   - orchestrator.go: the fixed build sequence
//   - factory.go: default dependencies
//   - doctor.go: external tool discovery
//   - safegroup.go: panic-safe errgroup wrapper
package engine
