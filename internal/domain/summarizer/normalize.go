package summarizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

// MinSummaryLength is the shortest summary the pipeline accepts.
const MinSummaryLength = 10

// Bullet replaces markdown list markers.
const Bullet = "• "

var (
	boilerplatePrefix = regexp.MustCompile(`(?i)^[*_#\s]*(?:(?:le résumé|résumé|voici le résumé|voici un résumé|summary)[*_]*\s*:[*_\s]*|okay,?\s*here'?s?\b[*_\s]*|here'?s?\b[*_\s]*)`)
	leadInClause      = regexp.MustCompile(`(?i)^(?:voici\s+|le document\s+|ce document\s+|le texte\s+|this document\s+|the document\s+)[^\n]*?:\s*`)
	englishFormula    = regexp.MustCompile(`(?i)^(?:a breakdown of|a summary of|overall purpose|key sections)`)
	boldMarker        = regexp.MustCompile(`\*\*([^\n]*?)\*\*`)
	italicMarker      = regexp.MustCompile(`\*([^\s*][^*\n]*?)\*`)
	strayEmphasis     = regexp.MustCompile(`\*{2,}`)
	headingMarker     = regexp.MustCompile(`(?m)^[ \t]*#+[ \t]*`)
	codeFence         = regexp.MustCompile("(?m)^[ \\t]*```[^\\n]*(?:\\n|$)")
	inlineCode        = regexp.MustCompile("`([^`]*)`")
	listBullet        = regexp.MustCompile(`(?m)^[ \t]*[*+\-][ \t]+`)
	numberedItem      = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	blankLines        = regexp.MustCompile(`\n\s*\n`)
)

// Normalize cleans a raw model response into a presentable summary.
// The transform runs until it reaches a fixed point, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	summary := raw
	// a pass never lengthens the text and only rewrites markers that cannot match again, so this terminates
	for {
		next := normalizePass(summary)
		if next == summary {
			break
		}
		summary = next
	}
	if utf8.RuneCountInString(summary) < MinSummaryLength {
		return "", apperrors.Wrap(CodeSummaryTooShort, "generated summary is too short or empty", nil)
	}
	return summary, nil
}

func normalizePass(text string) string {
	text = strings.TrimSpace(text)
	text = boilerplatePrefix.ReplaceAllString(text, "")
	text = leadInClause.ReplaceAllString(text, "")
	text = englishFormula.ReplaceAllString(text, "")

	text = boldMarker.ReplaceAllString(text, "${1}")
	text = italicMarker.ReplaceAllString(text, "${1}")
	text = strayEmphasis.ReplaceAllString(text, "")
	text = headingMarker.ReplaceAllString(text, "")

	text = codeFence.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "${1}")
	text = strings.ReplaceAll(text, "`", "")

	text = listBullet.ReplaceAllString(text, Bullet)
	text = numberedItem.ReplaceAllString(text, "")

	text = blankLines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
