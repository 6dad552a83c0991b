// Package config's Load/Validate split matches the teacher's manifest
// loading in cmd/warren/apply.go: parse first, then reject bad values
// before anything starts rather than failing deep inside the pipeline.
package config
