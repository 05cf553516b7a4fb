// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import "strings"

// Verdict is the domain classifier's judgment of a URL.
type Verdict int

const (
	// Neutral means the URL matched neither list.
	Neutral Verdict = iota

	// Trusted means the URL matched the open-access/PDF-hosting allowlist.
	Trusted

	// Blocked means the URL matched the retail/social/paywall denylist.
	// Blocking takes precedence over trust and is absolute: a blocked URL
	// never scores positively.
	Blocked
)

func (v Verdict) String() string {
	switch v {
	case Trusted:
		return "trusted"
	case Blocked:
		return "blocked"
	default:
		return "neutral"
	}
}

// strictDenyTokens blocks retail, social, paywall, and error-page domains.
// Substring match against the lowercased URL.
var strictDenyTokens = []string{
	"amazon.com", "amazon.co.uk", "amazon.ca",
	"goodreads.com", "wikipedia.org", "reddit.com",
	"quora.com", "youtube.com", "facebook.com",
	"twitter.com", "linkedin.com", "pinterest.com",
	"paywall", "subscription", "signup", "register",
	"404", "error", "notfound", "bookstore", "buy",
	"purchase", "shop", "review", "summary",
}

// batchDenyTokens extends the strict list with shorteners, more social
// hosts, and spam markers. Used by the batch profile.
var batchDenyTokens = []string{
	"amazon.com", "amazon.co.uk", "amazon.ca", "amazon.",
	"goodreads.com", "wikipedia.org", "wiki",
	"reddit.com", "redd.it", "quora.com",
	"youtube.com", "youtu.be", "facebook.com", "fb.com",
	"twitter.com", "x.com", "linkedin.com", "pinterest.com", "instagram.com",
	"paywall", "subscription", "signup", "register", "login",
	"404", "error", "notfound", "page-not-found",
	"adf.ly", "bit.ly", "tinyurl.com", "t.co",
	"spam", "malware", "virus", "phishing",
	"bookstore", "buy", "purchase", "shop",
	"review", "summary", "synopsis",
}

// strictAllowTokens lists known open-access and PDF-hosting domains.
var strictAllowTokens = []string{
	"archive.org", "libgen", "pdfdrive", "sci-hub",
	"researchgate.net", "academia.edu", "arxiv.org",
	"googleusercontent.com", "drive.google.com",
	"docs.google.com", "dropbox.com", "github.com",
}

// batchAllowTokens adds github.io to the strict allowlist.
var batchAllowTokens = []string{
	"archive.org", "libgen", "pdfdrive", "sci-hub",
	"researchgate.net", "academia.edu", "arxiv.org",
	"googleusercontent.com", "drive.google.com", "docs.google.com",
	"dropbox.com", "github.com", "github.io",
}

// Classify judges a URL against the profile's deny and allow lists.
// An empty URL is always Blocked. The denylist wins when both match.
func (s *Scorer) Classify(rawURL string) Verdict {
	if rawURL == "" {
		return Blocked
	}
	lower := strings.ToLower(rawURL)
	for _, tok := range s.deny {
		if strings.Contains(lower, tok) {
			return Blocked
		}
	}
	for _, tok := range s.allow {
		if strings.Contains(lower, tok) {
			return Trusted
		}
	}
	return Neutral
}

// SourceLabel derives a short source name from a URL's domain, used as the
// PdfLink source column: archive.org, libgen, pdfdrive, "direct" for bare
// .pdf URLs, otherwise "other".
func SourceLabel(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "archive.org"):
		return "archive.org"
	case strings.Contains(lower, "libgen"):
		return "libgen"
	case strings.Contains(lower, "pdfdrive"):
		return "pdfdrive"
	case strings.HasSuffix(lower, ".pdf"):
		return "direct"
	default:
		return "other"
	}
}
