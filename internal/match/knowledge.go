// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/alexandria/pkg/types"
)

// Table is an indexed, read-only knowledge table. Lookup keys map to
// canonical entries through a hash index rather than repeated scans.
type Table struct {
	entries []*types.KnowledgeEntry
	index   map[string]*types.KnowledgeEntry
}

// NewTable builds a Table from entries. Entries without explicit lookup
// keys get keys derived from their title via BuildKeys. When two entries
// produce the same key, the longer (more specific) title keeps it.
func NewTable(entries []types.KnowledgeEntry) *Table {
	t := &Table{index: make(map[string]*types.KnowledgeEntry)}
	for i := range entries {
		e := entries[i]
		if len(e.LookupKeys) == 0 {
			e.LookupKeys = BuildKeys(e.Title)
		} else {
			normed := make([]string, 0, len(e.LookupKeys))
			for _, k := range e.LookupKeys {
				if n := Normalize(k); n != "" {
					normed = append(normed, n)
				}
			}
			e.LookupKeys = normed
		}
		entry := &e
		t.entries = append(t.entries, entry)
		for _, k := range entry.LookupKeys {
			if prev, ok := t.index[k]; ok && len(prev.Title) >= len(entry.Title) {
				continue
			}
			t.index[k] = entry
		}
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// BuildKeys derives lookup keys from a title: the normalized full title,
// the title with a leading article stripped, and the 3- and 4-word
// significant prefixes.
func BuildKeys(title string) []string {
	full := Normalize(title)
	if full == "" {
		return nil
	}

	seen := map[string]bool{}
	var keys []string
	add := func(k string) {
		if len(k) > 2 && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	add(full)
	add(stripArticle(full))

	words := significantWords(title)
	if len(words) >= 2 {
		add(strings.Join(words[:min(3, len(words))], " "))
	}
	if len(words) >= 4 {
		add(strings.Join(words[:4], " "))
	}
	return keys
}

// LoadTable reads knowledge entries from a YAML file and merges them over
// the seed table. File entries win on key collisions by order of addition.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file: %w", err)
	}
	var entries []types.KnowledgeEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing knowledge file %s: %w", path, err)
	}
	return NewTable(append(seedEntries(), entries...)), nil
}

// SeedTable returns the built-in knowledge table.
func SeedTable() *Table {
	return NewTable(seedEntries())
}

// seedEntries is the reference corpus of canonical (title, author) pairs.
// Keys are derived; a few entries carry extra keys for common short forms.
func seedEntries() []types.KnowledgeEntry {
	return []types.KnowledgeEntry{
		{Title: "The 48 Laws of Power", Author: "Robert Greene"},
		{Title: "The Art of Seduction", Author: "Robert Greene"},
		{Title: "The 33 Strategies of War", Author: "Robert Greene"},
		{Title: "Mastery", Author: "Robert Greene"},
		{Title: "The Daily Laws", Author: "Robert Greene"},
		{Title: "Laws of Human Nature", Author: "Robert Greene"},

		{Title: "Fooled by Randomness", Author: "Nassim Nicholas Taleb"},
		{Title: "Antifragile", Author: "Nassim Nicholas Taleb"},
		{Title: "Skin in the Game", Author: "Nassim Nicholas Taleb"},
		{Title: "The Black Swan", Author: "Nassim Nicholas Taleb"},

		{Title: "The Prince", Author: "Niccolò Machiavelli"},
		{Title: "The Art of War", Author: "Sun Tzu"},
		{Title: "The Book of Five Rings", Author: "Miyamoto Musashi"},
		{Title: "Hagakure", Author: "Yamamoto Tsunetomo"},

		{Title: "Meditations", Author: "Marcus Aurelius"},
		{Title: "Enchiridion", Author: "Epictetus"},
		{Title: "Discourses", Author: "Epictetus"},
		{Title: "Letters from a Stoic", Author: "Seneca"},
		{Title: "On the Shortness of Life", Author: "Seneca"},

		{Title: "Zen Mind, Beginner's Mind", Author: "Shunryu Suzuki"},
		{Title: "The Miracle of Mindfulness", Author: "Thich Nhat Hanh"},
		{Title: "What the Buddha Taught", Author: "Walpola Rahula"},
		{Title: "Dhammapada", Author: "Various"},

		{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky"},
		{Title: "The Brothers Karamazov", Author: "Fyodor Dostoevsky"},
		{Title: "Notes from Underground", Author: "Fyodor Dostoevsky"},

		{Title: "Basic Economics", Author: "Thomas Sowell"},
		{Title: "Capitalism and Freedom", Author: "Milton Friedman"},
		{Title: "The Road to Serfdom", Author: "F.A. Hayek"},
		{Title: "The Communist Manifesto", Author: "Karl Marx & Friedrich Engels"},

		{Title: "Atomic Habits", Author: "James Clear"},
		{Title: "Deep Work", Author: "Cal Newport"},
		{Title: "Getting Things Done", Author: "David Allen",
			LookupKeys: []string{"getting things done", "gtd"}},
		{Title: "Influence", Author: "Robert Cialdini"},

		{Title: "The Strategy of Conflict", Author: "Thomas Schelling"},
		{Title: "Code Complete", Author: "Steve McConnell"},
		{Title: "Clean Code", Author: "Robert C. Martin"},
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt & David Thomas"},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann",
			LookupKeys: []string{"designing data intensive applications", "data intensive applications", "ddia"}},
		{Title: "Site Reliability Engineering", Author: "Google",
			LookupKeys: []string{"site reliability engineering", "sre"}},
	}
}
