// Package tlclient talks to the remote Timeline Server over HTTP. Posted
// JSON bodies carry the stable otherInfo/filters/event-type strings (pkg/timeline)
// the server's reader side depends on (spec.md §6 "On-wire format").
package tlclient
