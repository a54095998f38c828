// Package sanitise strips markup from user-supplied text.
package sanitise

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Sanitiser implements the interface.
var _ driven.Sanitiser = (*Sanitiser)(nil)

// Sanitiser removes every HTML element from memo bodies, keeping their text.
// Script and style contents are dropped entirely.
type Sanitiser struct {
	policy *bluemonday.Policy
}

// New creates a sanitiser using bluemonday's strict policy.
func New() *Sanitiser {
	return &Sanitiser{policy: bluemonday.StrictPolicy()}
}

// Sanitise returns s as plain text. Entities escaped by the policy are
// decoded again so "a & b" survives unchanged.
func (s *Sanitiser) Sanitise(in string) string {
	return html.UnescapeString(s.policy.Sanitize(in))
}
