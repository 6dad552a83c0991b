// Package poster drains the posting queue into the remote timeline client.
// It is the only package whose goroutine blocks on network I/O or sleeps
// for backoff; every other package only ever holds short-lived mutexes
// (spec.md §5 "Shared resources").
package poster
