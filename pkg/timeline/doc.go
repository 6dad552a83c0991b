// Package timeline models the posted-to-the-server data shapes (spec.md
// §3, §4.1) and the pure functions that build them: ToEvent classifies and
// translates a single input event, CreateEntity assembles the per-attempt
// Entity from accumulated Meta state. Neither function performs I/O; they
// exist so pkg/intake and pkg/poster stay thin orchestration around them.
package timeline
