// Package provider holds pure, side-effect-free merge logic: no locking,
// no I/O, safe to call from any goroutine (spec.md §4.8).
package provider
