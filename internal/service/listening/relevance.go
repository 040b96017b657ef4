// internal/service/listening/relevance.go

package listening

import (
	"errors"
	"strings"
)

// ErrEmptyAnchor is returned when a classifier is built without an anchor term
var ErrEmptyAnchor = errors.New("anchor term is required")

// Classifier decides whether text belongs to the tracked topic.
//
// Matching is plain case-insensitive substring matching: "delay" also matches
// "delayed" and "iberia" matches "iberian". Term lists must be written with
// that in mind.
//
// A classifier with no topical terms never reports anything as relevant.
type Classifier struct {
	anchor string
	terms  []string
}

// NewClassifier creates a classifier for the given anchor and topical terms
func NewClassifier(anchor string, topical []string) (*Classifier, error) {
	anchor = strings.ToLower(strings.TrimSpace(anchor))
	if anchor == "" {
		return nil, ErrEmptyAnchor
	}

	terms := make([]string, 0, len(topical))
	for _, term := range topical {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}

	return &Classifier{
		anchor: anchor,
		terms:  terms,
	}, nil
}

// Anchor returns the lowercased anchor term
func (c *Classifier) Anchor() string {
	return c.anchor
}

// Degenerate reports whether the classifier can never match
func (c *Classifier) Degenerate() bool {
	return len(c.terms) == 0
}

// IsRelevant reports whether body or title mention the anchor and at least one
// topical term. Title may be empty.
func (c *Classifier) IsRelevant(body, title string) bool {
	body = strings.ToLower(body)
	title = strings.ToLower(title)

	if !strings.Contains(body, c.anchor) && !strings.Contains(title, c.anchor) {
		return false
	}

	for _, term := range c.terms {
		if strings.Contains(body, term) || strings.Contains(title, term) {
			return true
		}
	}
	return false
}
