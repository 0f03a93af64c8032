package processing

import (
	"regexp"
	"strings"
	"unicode"
)

var urlRegex = regexp.MustCompile(`http\S+|www\S+`)

var (
	mentions   = regexp.MustCompile(`@\w+|u/\w+|r/\w+`)
	entities   = regexp.MustCompile(`&\w+;`)
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9\s!?.,]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// RemoveURLs removes http(s) links and bare www. hosts, including everything up
// to the next whitespace.
func RemoveURLs(input string) string {
	return urlRegex.ReplaceAllString(input, "")
}

// Normalize turns raw post or headline text into the canonical analyzable form.
// An empty result means the item carries nothing worth scoring and must be discarded.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	// Go's \s is ASCII-only, so NBSP, em space and \v become plain spaces first.
	text := strings.Map(spaceRune, strings.ToLower(raw))
	text = RemoveURLs(text)
	text = mentions.ReplaceAllString(text, "")
	text = entities.ReplaceAllString(text, "")
	text = disallowed.ReplaceAllString(text, "")
	// Dropping characters can splice a scheme back together ("ht-tp://x" -> "httpx").
	text = RemoveURLs(text)

	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if _, skip := stopwords[word]; skip {
			continue
		}
		kept = append(kept, word)
	}

	return strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(kept, " "), " "))
}

func spaceRune(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}
