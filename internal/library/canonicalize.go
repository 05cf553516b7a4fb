// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library files PDFs under deterministic canonical names and
// imports files observed in a watched directory.
// Implements: prd006-filing (R1-R4);
//
//	docs/ARCHITECTURE § Filing.
package library

import (
	"fmt"
	"regexp"
	"strings"
)

// reservedChars are replaced with a hyphen so names stay valid on every
// filesystem the library may live on.
const reservedChars = `<>:"/\|?*`

var hyphenRuns = regexp.MustCompile(`-+`)

// SanitizeComponent cleans one name component: reserved characters become
// hyphens, leading/trailing spaces and periods are trimmed, and hyphen
// runs collapse to one.
func SanitizeComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(reservedChars, r) {
			b.WriteByte('-')
		} else {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	return hyphenRuns.ReplaceAllString(out, "-")
}

// Canonicalize computes the canonical "Title - Author.pdf" file name,
// avoiding every name in existing by appending " (N)" before the
// extension, N counting up from 1. Pure and deterministic: the caller
// performs the actual rename, and when renaming a file in place it must
// leave the file's current name out of existing.
func Canonicalize(title, author string, existing map[string]bool) string {
	base := fmt.Sprintf("%s - %s", SanitizeComponent(title), SanitizeComponent(author))

	name := base + ".pdf"
	for n := 1; existing[name]; n++ {
		name = fmt.Sprintf("%s (%d).pdf", base, n)
	}
	return name
}
