package index

import (
	"regexp"
	"sort"
	"strings"
)

// wordRegex matches alphabetic runs of at least three characters.
var wordRegex = regexp.MustCompile(`[a-z]{3,}`)

// stopWords are common English words excluded from the keyword index.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"has": {}, "have": {}, "had": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "with": {}, "from": {}, "into": {}, "about": {}, "after": {},
	"before": {}, "over": {}, "under": {}, "between": {}, "but": {}, "not": {},
	"all": {}, "any": {}, "its": {}, "his": {}, "her": {}, "their": {},
	"they": {}, "them": {}, "been": {}, "being": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "can": {}, "may": {}, "than": {}, "then": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "what": {}, "how": {},
	"why": {}, "out": {}, "also": {}, "more": {}, "most": {}, "some": {},
	"such": {}, "only": {}, "other": {}, "new": {}, "now": {}, "per": {},
}

// ExtractKeywords tokenizes title and summary into lower-case alphabetic
// keywords, drops stop words, and unions the result with any explicitly
// supplied keywords. The returned slice is deduplicated and sorted.
// Extraction happens once at index time, never at query time.
func ExtractKeywords(title, summary string, explicit []string) []string {
	text := strings.ToLower(title + " " + summary)

	seen := make(map[string]struct{})
	for _, w := range wordRegex.FindAllString(text, -1) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		seen[w] = struct{}{}
	}
	for _, k := range explicit {
		k = normalizeTerm(k)
		if k != "" {
			seen[k] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
