// Package taggraph manages the relationships between tags.
//
// Parent edges are implications: a hash tagged with a child tag also
// satisfies every ancestor of that tag. The parent graph is kept acyclic;
// AddParent checks the child's descendant closure inside the same
// transaction that inserts the edge.
//
// Sibling edges are display aliases from a non-ideal tag to its ideal form.
// They are resolved one hop at a time and never take part in implication or
// cycle checks.
package taggraph
