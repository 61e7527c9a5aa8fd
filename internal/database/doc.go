// Package database provides SQLite storage for the tag archive.
//
// It handles storage and retrieval of:
//   - Namespaces, subtags and the tags built from them
//   - Content hashes and the repository (inbox, archive, trash) each sits in
//   - Hash-to-tag mappings
//   - The tag graph: parent implications and sibling aliases
//   - Library statistics for the metrics collector
//
// Hash searches are rendered as a single parameterised statement of EXISTS
// and NOT EXISTS subqueries from a HashFilter. Substring matching uses
// instr, so wildcard-like characters in user text are always literal.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
