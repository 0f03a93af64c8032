// Package sources turns raw feed metadata into tidy, human-readable source labels.
package sources

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule maps a case-folded feed-title fragment to a canonical outlet name.
type Rule struct {
	Match string `yaml:"match" json:"match"`
	Name  string `yaml:"name" json:"name"`
}

// DefaultRules is evaluated top to bottom; the first match wins.
var DefaultRules = []Rule{
	{Match: "bbc", Name: "BBC Sport"},
	{Match: "guardian", Name: "The Guardian"},
	{Match: "mail online", Name: "The Daily Mail"},
	{Match: "sky", Name: "Sky News"},
	{Match: "fourfourtwo", Name: "Fourfourtwo"},
	{Match: "espn", Name: "ESPN"},
	{Match: "caughtoffside", Name: "Caught Offside"},
	{Match: "metro", Name: "Metro UK"},
	{Match: "marca", Name: "Marca"},
	{Match: "mirror", Name: "The Daily Mirror"},
	{Match: "standard", Name: "London Evening Standard"},
	{Match: "independent", Name: "The Independent"},
	{Match: "google news", Name: "Google News"},
	{Match: "premiership results & table", Name: "Soccer News"},
	{Match: "the latest news, gossip and transfer rumours", Name: "Football-talk.co.uk"},
	{Match: "men - manchester united fc", Name: "Manchester Evening News"},
	{Match: "football365.com | manchester united", Name: "Football 365"},
	{Match: "givemesport", Name: "Give Me Sport"},
	{Match: "the peoples person", Name: "The Peoples Person"},
	{Match: "republik of mancunia", Name: "Republik of Mancunia"},
	{Match: "stretty news", Name: "Stretty News"},
	{Match: "manutd.com news rss", Name: "ManUnited.com"},
}

const unknownTitle = "unknown"

// Resolver applies an ordered rule table.
type Resolver struct {
	rules []Rule
}

// NewResolver builds a resolver; a nil or empty table means DefaultRules.
func NewResolver(rules []Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	cleaned := make([]Rule, 0, len(rules))
	for _, r := range rules {
		match := strings.ToLower(strings.TrimSpace(r.Match))
		if match == "" || strings.TrimSpace(r.Name) == "" {
			continue
		}
		cleaned = append(cleaned, Rule{Match: match, Name: strings.TrimSpace(r.Name)})
	}
	return &Resolver{rules: cleaned}
}

// Resolve returns the canonical name for a feed title, or the title-cased raw
// title when no rule matches.
func (r *Resolver) Resolve(feedTitle string) string {
	title := strings.ToLower(strings.TrimSpace(feedTitle))
	if title == "" {
		title = unknownTitle
	}
	for _, rule := range r.rules {
		if strings.Contains(title, rule.Match) {
			return rule.Name
		}
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(title)
}
