// Package document reads and writes documents through handles.
//
// A Manager is bound to a content category (binary, XML, JSON, text or any)
// and delegates transport to rest.Services. Each call checks the handle's
// capabilities, sends or receives its byte stream, and returns transport
// errors unchanged so that rest.ErrNotFound, rest.ErrRangeNotSatisfiable and
// rest.ErrTransport stay distinguishable.
package document
