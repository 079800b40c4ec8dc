// Package docdb is a client SDK for a document database. Documents are read
// and written through handles: typed adapters between an in-memory value
// (an XML tree, a JSON value, bytes, text or a stream) and the bytes the
// server stores.
//
// The core types are:
//
//   - [Client] wires configuration, the REST transport and the managers.
//   - [document.Manager] reads and writes documents of one format.
//   - [document.BinaryManager] adds byte range reads.
//   - [query.Manager] builds and runs searches, values and tuples queries.
//   - The [handle] package holds the handles themselves.
//
// # Quick Start
//
//	client, _ := docdb.New(docdb.Options{
//	    Config: config.ClientConfig{Endpoint: "http://localhost:8040"},
//	})
//	h := handle.NewJSONHandle[map[string]any]()
//	_, err := client.JSONManager().Read(ctx, "/books/emma.json", h)
//	fmt.Println(h.Get()["title"])
//
// A reference server lives in the [github.com/deepnoodle-ai/docdb/server]
// package and the docdb command line tool serves and edits documents.
package docdb
