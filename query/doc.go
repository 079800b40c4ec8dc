// Package query builds search, values and delete definitions and runs them
// against a docdb server through a rest.Services transport.
//
// Results are read into handles, the same way documents are:
//
//	qm := query.NewManager(services)
//	def := qm.NewStringDefinition().WithText("apollo moon")
//	results, err := qm.Search(ctx, def, handle.NewSearchHandle())
package query
