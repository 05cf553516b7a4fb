// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KnowledgeEntry maps lookup keys to a canonical (title, author) pair.
// Entries are built once from a reference corpus and are read-only at
// matching time. Per prd003-matching R1.1-R1.3.
type KnowledgeEntry struct {
	// Title is the canonical book title.
	Title string `json:"title" yaml:"title"`

	// Author is the canonical author name.
	Author string `json:"author" yaml:"author"`

	// LookupKeys are normalized match keys: the full normalized title, the
	// title with a leading article stripped, and 3- and 4-word significant
	// prefixes. Empty in a source file means "derive from Title".
	LookupKeys []string `json:"lookup_keys,omitempty" yaml:"lookup_keys,omitempty"`
}
