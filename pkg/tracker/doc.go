// Package tracker is a read side only: it never touches the posting queue
// or timeline client, just a UI-facing snapshot of sessions and running
// executions (spec.md §4.6). It is registered under the name
// "session-tracker" in the extension-service registry (pkg/extension).
package tracker
