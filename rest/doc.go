// Package rest is the transport between the docdb document and query
// managers and a docdb server. The Services interface is what the managers
// depend on; Client implements it over HTTP.
//
// Service failures are reported as *ServiceError and connection failures as
// *TransportError. Both match the package sentinels with errors.Is, so
// callers can tell a missing document (ErrNotFound) from an invalid byte
// range (ErrRangeNotSatisfiable) or an unreachable server (ErrTransport).
package rest
