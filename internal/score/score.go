// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score classifies and scores candidate PDF URLs.
// Implements: prd001-scoring (R1-R4);
//
//	docs/ARCHITECTURE § Scoring.
//
// Two scoring profiles exist. The strict profile is the interactive
// default; the batch profile weights a direct .pdf hit harder and accepts
// weaker candidates, trading precision for coverage on large runs. The
// profiles are deliberately separate: callers pick one by name, the
// weights are never merged.
package score

import (
	"fmt"
	"strings"

	"github.com/pdiddy/alexandria/pkg/types"
)

// Profile names a scoring rule set.
type Profile string

const (
	// ProfileStrict is the interactive default.
	ProfileStrict Profile = "strict"

	// ProfileBatch is the permissive large-run profile.
	ProfileBatch Profile = "batch"
)

// ParseProfile maps a config string to a Profile. Empty selects strict.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "", string(ProfileStrict):
		return ProfileStrict, nil
	case string(ProfileBatch):
		return ProfileBatch, nil
	default:
		return "", fmt.Errorf("unknown scoring profile %q (want strict or batch)", s)
	}
}

// Scorer scores URLs under one profile. Pure and stateless after construction.
type Scorer struct {
	profile Profile
	deny    []string
	allow   []string
}

// NewScorer returns a Scorer for the given profile.
func NewScorer(p Profile) *Scorer {
	s := &Scorer{profile: p}
	switch p {
	case ProfileBatch:
		s.deny = batchDenyTokens
		s.allow = batchAllowTokens
	default:
		s.profile = ProfileStrict
		s.deny = strictDenyTokens
		s.allow = strictAllowTokens
	}
	return s
}

// Profile returns the scorer's profile name.
func (s *Scorer) Profile() Profile { return s.profile }

// TopN is the number of candidates the discovery engine persists per book
// under this profile.
func (s *Scorer) TopN() int {
	if s.profile == ProfileBatch {
		return 10
	}
	return 5
}

// MinScore is the lowest score the discovery engine keeps. The strict
// profile keeps positive scores only; the batch profile keeps anything
// short of a hard block.
func (s *Scorer) MinScore() int {
	if s.profile == ProfileBatch {
		return -49
	}
	return 1
}

// QueryVariants builds the search queries issued for one book.
func (s *Scorer) QueryVariants(title, author string) []string {
	if s.profile == ProfileBatch {
		return []string{
			fmt.Sprintf("%s %s pdf", title, author),
			fmt.Sprintf("%s %s free pdf", title, author),
			fmt.Sprintf("%q %s pdf", title, author),
		}
	}
	return []string{fmt.Sprintf("%s %s free pdf", title, author)}
}

// Score rates how likely a URL is to be a downloadable PDF of interest,
// given the search snippet's title and body. Rules contribute additive
// points and a reason each; a denylist hit is disqualifying and
// short-circuits with confidence none regardless of anything else.
func (s *Scorer) Score(url, title, body string) types.Candidate {
	c := types.Candidate{
		URL:        url,
		Title:      title,
		Body:       body,
		Confidence: types.ConfidenceLow,
		Source:     SourceLabel(url),
	}

	if s.Classify(url) == Blocked {
		c.Score = -500
		c.Reasons = []string{"BLOCKED: paywall/retail/sketchy domain"}
		c.Confidence = types.ConfidenceNone
		return c
	}

	if s.profile == ProfileBatch {
		s.scoreBatch(&c)
	} else {
		s.scoreStrict(&c)
	}

	// Re-derive confidence from the cumulative score. Rule floors are
	// only ever upgraded here, never lowered.
	switch {
	case c.Score >= 150:
		c.Confidence = c.Confidence.Max(types.ConfidenceHigh)
	case c.Score >= 80:
		c.Confidence = c.Confidence.Max(types.ConfidenceMedium)
	case c.Score >= 30:
		c.Confidence = c.Confidence.Max(types.ConfidenceLowMedium)
	}
	return c
}

func (s *Scorer) scoreStrict(c *types.Candidate) {
	urlLower := strings.ToLower(c.URL)
	titleLower := strings.ToLower(c.Title)
	bodyLower := strings.ToLower(c.Body)

	if strings.HasSuffix(urlLower, ".pdf") {
		c.Score += 200
		c.Reasons = append(c.Reasons, "Direct PDF file")
		c.Confidence = c.Confidence.Max(types.ConfidenceHigh)
	}

	if strings.Contains(urlLower, "/pdf") || strings.Contains(urlLower, "filetype=pdf") {
		c.Score += 120
		c.Reasons = append(c.Reasons, "PDF in URL")
		c.Confidence = c.Confidence.Max(types.ConfidenceMediumHigh)
	}

	if s.Classify(c.URL) == Trusted {
		c.Score += 80
		c.Reasons = append(c.Reasons, "Known PDF hosting domain")
		c.Confidence = c.Confidence.Max(types.ConfidenceMediumHigh)
	}

	// Stacks with the trusted-domain bonus: archive.org is also allowlisted.
	if strings.Contains(urlLower, "archive.org") {
		c.Score += 60
		c.Reasons = append(c.Reasons, "Internet Archive")
		c.Confidence = c.Confidence.Max(types.ConfidenceHigh)
	}

	if strings.Contains(titleLower, "pdf") || strings.Contains(bodyLower, "pdf") {
		c.Score += 40
		c.Reasons = append(c.Reasons, "PDF mentioned")
	}

	if strings.Contains(titleLower, "free") || strings.Contains(bodyLower, "download") {
		c.Score += 20
		c.Reasons = append(c.Reasons, "Free/download mentioned")
	}

	if len(c.Reasons) == 0 {
		c.Reasons = append(c.Reasons, "Generic link")
	}
}

func (s *Scorer) scoreBatch(c *types.Candidate) {
	urlLower := strings.ToLower(c.URL)
	titleLower := strings.ToLower(c.Title)

	if strings.HasSuffix(urlLower, ".pdf") {
		c.Score += 300
		c.Reasons = append(c.Reasons, "PDF")
		c.Confidence = c.Confidence.Max(types.ConfidenceHigh)
	}

	// Source bonuses are mutually exclusive under batch, best-first.
	switch {
	case strings.Contains(urlLower, "archive.org"):
		c.Score += 100
		c.Reasons = append(c.Reasons, "Archive")
		c.Confidence = c.Confidence.Max(types.ConfidenceHigh)
	case strings.Contains(urlLower, "libgen"):
		c.Score += 90
		c.Reasons = append(c.Reasons, "LibGen")
		c.Confidence = c.Confidence.Max(types.ConfidenceMediumHigh)
	case s.Classify(c.URL) == Trusted:
		c.Score += 60
		c.Reasons = append(c.Reasons, "Good")
		c.Confidence = c.Confidence.Max(types.ConfidenceMediumHigh)
	}

	if strings.Contains(urlLower, "/pdf") || strings.Contains(titleLower, "pdf") {
		c.Score += 40
		c.Reasons = append(c.Reasons, "PDF-ref")
	}

	if strings.Contains(urlLower, "download") || strings.Contains(titleLower, "download") {
		c.Score += 20
		c.Reasons = append(c.Reasons, "DL")
	}

	if len(c.Reasons) == 0 {
		c.Score = 10
		c.Reasons = append(c.Reasons, "OK")
	}
}
