// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Confidence is a coarse bucket summarizing score magnitude, used for
// display and filtering. Per prd001-scoring R3.1.
type Confidence string

const (
	ConfidenceNone       Confidence = "none"
	ConfidenceLow        Confidence = "low"
	ConfidenceLowMedium  Confidence = "low-medium"
	ConfidenceMedium     Confidence = "medium"
	ConfidenceMediumHigh Confidence = "medium-high"
	ConfidenceHigh       Confidence = "high"
)

// confidenceRank orders tiers for floor comparisons and link sorting.
var confidenceRank = map[Confidence]int{
	ConfidenceNone:       0,
	ConfidenceLow:        1,
	ConfidenceLowMedium:  2,
	ConfidenceMedium:     3,
	ConfidenceMediumHigh: 4,
	ConfidenceHigh:       5,
}

// Rank returns the tier's position in the none..high ladder.
func (c Confidence) Rank() int { return confidenceRank[c] }

// Max returns the higher of two tiers. Scoring rules set confidence
// floors that a later threshold pass may raise but never lower.
func (c Confidence) Max(other Confidence) Confidence {
	if other.Rank() > c.Rank() {
		return other
	}
	return c
}

// Candidate is a search result URL together with its computed score.
// Per prd001-scoring R3.2.
type Candidate struct {
	// URL is the candidate download URL.
	URL string `json:"url" yaml:"url"`

	// Title and Body are the search snippet title and text the URL came with.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Body  string `json:"body,omitempty" yaml:"body,omitempty"`

	// Score is the additive rule score. Blocked URLs score -500.
	Score int `json:"score" yaml:"score"`

	// Reasons lists the human-readable rule hits, in rule order.
	Reasons []string `json:"reasons" yaml:"reasons"`

	// Confidence is the derived confidence tier.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// Source is a label derived from the URL's domain.
	Source string `json:"source" yaml:"source"`
}
