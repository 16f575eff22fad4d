package summarizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "empty text",
			text:  "",
			limit: 10,
			want:  []string{},
		},
		{
			name:  "whitespace only",
			text:  " \n\t ",
			limit: 10,
			want:  []string{},
		},
		{
			name:  "frequency ordering",
			text:  "Le projet utilise Go. Le projet déploie Go sur Kubernetes avec Go.",
			limit: 10,
			want:  []string{"projet", "utilise", "déploie", "kubernetes"},
		},
		{
			name:  "ties keep first appearance",
			text:  "zèbre alpaga zèbre alpaga castor",
			limit: 10,
			want:  []string{"zèbre", "alpaga", "castor"},
		},
		{
			name:  "limit applied",
			text:  "données données données modèle modèle résumé",
			limit: 2,
			want:  []string{"données", "modèle"},
		},
		{
			name:  "punctuation stripped and hyphen kept",
			text:  "L'état-major (réunion!) décide: réunion, réunion?",
			limit: 10,
			want:  []string{"réunion", "l'état-major", "décide"},
		},
		{
			name:  "default limit",
			text:  "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima",
			limit: 0,
			want:  []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliet"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ExtractKeywords(tc.text, tc.limit))
		})
	}
}

func TestExtractKeywordsProperties(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("La plateforme analyse les documents et les résumés des utilisateurs. ", 3) +
		"Les utilisateurs téléversent des documents PDF pour obtenir une synthèse rapide et des mots clés pertinents."
	keywords := ExtractKeywords(text, 10)
	require.LessOrEqual(t, len(keywords), 10)

	counts := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(keywordNoise.ReplaceAllString(strings.ToLower(text), ""))) {
		counts[token]++
	}
	for i, kw := range keywords {
		require.Greater(t, utf8.RuneCountInString(kw), 2, kw)
		require.False(t, IsStopword(kw), kw)
		require.Equal(t, strings.ToLower(kw), kw)
		if i > 0 {
			require.GreaterOrEqual(t, counts[keywords[i-1]], counts[kw])
		}
	}
}
