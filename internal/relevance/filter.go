// Package relevance decides whether an item is about the club before it becomes a Record.
package relevance

import "strings"

// Mode selects how strictly items are gated.
type Mode int

const (
	// ModeClubOnly accepts everything; used when the source is already club-specific.
	ModeClubOnly Mode = iota
	// ModeGeneral accepts an item only if it mentions one of the keywords.
	ModeGeneral
)

func (m Mode) String() string {
	if m == ModeGeneral {
		return "general"
	}
	return "club-only"
}

// DefaultKeywords covers club name variants, the ground, personnel and ownership.
var DefaultKeywords = []string{
	"man united", "mufc", "the red devils", "red devils", "manchester united", "manchester utd",
	"man u", "old trafford", "man utd", "bruno fernandes", "lisandro martinez", "harry maguire",
	"luke shaw", "matheus cunha", "stretford end", "casemiro", "sesko", "mbeumo", "amad diallo",
	"mason mount", "carrick", "ratcliffe", "jason wilcox", "omar berrada", "class of 92",
	"alex ferguson", "glazers", "senne lammens", "leny yoro", "darren fletcher", "dorgu",
	"paul scholes", "roy keane", "gary neville", "andy mitten", "ugarte", "kobbie mainoo",
}

// Filter is the relevance gate. Matching is plain substring containment on the
// lower-cased text, so short keywords can hit inside unrelated words.
type Filter struct {
	mode     Mode
	keywords []string
}

// New builds a filter. Keywords are lower-cased and blanks dropped.
func New(mode Mode, keywords []string) *Filter {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &Filter{mode: mode, keywords: kw}
}

// Mode reports the filter's mode. A nil filter accepts everything.
func (f *Filter) Mode() Mode {
	if f == nil {
		return ModeClubOnly
	}
	return f.mode
}

// Match reports whether text should be kept.
func (f *Filter) Match(text string) bool {
	if f == nil || f.mode == ModeClubOnly {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
