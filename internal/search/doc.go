// Package search evaluates tag queries against the archive.
//
// A Service drives a raw request through the query package (parse, plan,
// reduce) and hands the DecomposedQuery to a Searcher, which expands every
// tag to its descendants through the tag graph and renders the result as a
// single database.HashFilter. SuggestionFinder is a separate entry point for
// autocomplete.
package search
