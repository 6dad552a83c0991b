// Package service is the only package that constructs and wires the rest
// of the module together: queue, intake, tlclient, poster, extension
// container, and the bus subscription. Everything else stays decoupled
// and independently testable.
package service
