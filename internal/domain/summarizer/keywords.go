package summarizer

import (
	_ "embed"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxKeywords is used when callers pass a non-positive limit.
const DefaultMaxKeywords = 10

//go:embed stopwords_fr.txt
var frenchStopwordsRaw string

var (
	frenchStopwords = loadStopwords(frenchStopwordsRaw)
	keywordNoise    = regexp.MustCompile(`[^\w\sàâäéèêëïîôöùûüç\-']`)
)

// ExtractKeywords ranks the most frequent meaningful tokens of text.
// Ties keep the order in which tokens first appear. Empty input yields an empty slice.
func ExtractKeywords(text string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	cleaned := keywordNoise.ReplaceAllString(strings.ToLower(text), "")

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, token := range strings.Fields(cleaned) {
		if IsStopword(token) || utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// IsStopword reports whether token is in the French stopword list.
func IsStopword(token string) bool {
	_, ok := frenchStopwords[token]
	return ok
}

func loadStopwords(raw string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}
