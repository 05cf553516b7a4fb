// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pdfMetadata reads the Title and Author fields of a PDF's info
// dictionary. Either value may be empty: many scanned or converted PDFs
// carry no metadata, or junk like the conversion tool's name. Errors are
// swallowed; metadata is a best-effort hint, never a hard requirement.
func pdfMetadata(path string) (title, author string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, nil)
	if err != nil || info == nil {
		return "", ""
	}
	return cleanMetaField(info.Title), cleanMetaField(info.Author)
}

// junkMetaValues are producer strings frequently found in Title/Author
// fields that carry no real information.
var junkMetaValues = []string{
	"untitled", "unknown", "microsoft word", "pdfcreator", "calibre",
}

func cleanMetaField(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, junk := range junkMetaValues {
		if strings.Contains(lower, junk) {
			return ""
		}
	}
	return s
}
