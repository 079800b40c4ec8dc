// Package handle binds in-memory content representations to the byte streams
// exchanged with a document database.
//
// A handle holds one value of a specific kind (bytes, a string, an XML tree,
// a decoded JSON value, document metadata, search results) and declares the
// formats it can carry and the capabilities it offers. Document and query
// operations accept handles and check their capabilities before talking to
// the server:
//
//   - [ReadHandle] parses a received stream into its value via Receive.
//   - [WriteHandle] serializes its value to a stream via Send and WriteTo.
//
// Handles are not safe for concurrent use. Use one handle per in-flight
// operation.
package handle
