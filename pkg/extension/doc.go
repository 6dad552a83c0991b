// Package extension's registry-of-factories pattern mirrors the
// prometheus.MustRegister style used throughout pkg/metrics: the
// implementing package registers itself, callers never import it by its
// concrete type.
package extension
