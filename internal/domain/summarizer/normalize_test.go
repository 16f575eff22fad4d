package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bold french prefix",
			raw:  "**Résumé:** Ceci est un test.\n\n\n",
			want: "Ceci est un test.",
		},
		{
			name: "plain french prefix",
			raw:  "  Voici le résumé : Le projet vise à automatiser la facturation.  ",
			want: "Le projet vise à automatiser la facturation.",
		},
		{
			name: "english here's",
			raw:  "Here's a concise overview of the quarterly report.",
			want: "a concise overview of the quarterly report.",
		},
		{
			name: "lead-in clause before colon",
			raw:  "Le document présente plusieurs points clés : la croissance est forte.",
			want: "la croissance est forte.",
		},
		{
			name: "markdown structure",
			raw:  "## Titre principal\n\n**Points clés**\n- premier point important\n* second point `code`\n+ troisième point\n1. élément numéroté\n\n\n*fin* du texte",
			want: "Titre principal\nPoints clés\n• premier point important\n• second point code\n• troisième point\nélément numéroté\nfin du texte",
		},
		{
			name: "code fence removed",
			raw:  "```text\nLe contenu du bloc reste lisible.\n```",
			want: "Le contenu du bloc reste lisible.",
		},
		{
			name: "decimal numbers kept",
			raw:  "3.5 millions d'utilisateurs actifs ce mois-ci.",
			want: "3.5 millions d'utilisateurs actifs ce mois-ci.",
		},
		{
			name: "unbalanced bold removed",
			raw:  "Un texte **sans fermeture du marqueur gras.",
			want: "Un texte sans fermeture du marqueur gras.",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRejectsShortSummaries(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   \n\n ", "Résumé: ok", "**court**"} {
		_, err := Normalize(raw)
		require.Error(t, err, raw)
		require.True(t, apperrors.IsCode(err, CodeSummaryTooShort), raw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"**Résumé:** Ceci est un test.\n\n\n",
		"Résumé : Voici le résumé : Le texte décrit trois étapes du processus.",
		"# Titre\n\n1. 2. Première étape du plan d'action\n- - Liste imbriquée sans fin",
		"Here's a summary of the document: the document explains the rollout plan.",
		"Texte simple sans aucune mise en forme particulière.",
		"***Triple*** emphase et `code` et ``double`` marqueurs",
		strings.Repeat("Summary: ", 7) + "Ceci est un test assez long.",
		strings.Repeat("Résumé : ", 12) + "- Un point\n- Un autre point",
	}
	for _, raw := range inputs {
		once, err := Normalize(raw)
		require.NoError(t, err, raw)
		twice, err := Normalize(once)
		require.NoError(t, err, raw)
		require.Equal(t, once, twice, raw)
	}
}

func TestNormalizeStripsDeeplyNestedPrefixes(t *testing.T) {
	t.Parallel()

	got, err := Normalize(strings.Repeat("Summary: ", 7) + "Ceci est un test assez long.")
	require.NoError(t, err)
	require.Equal(t, "Ceci est un test assez long.", got)
}

func TestNormalizeStripsMarkdownControlSequences(t *testing.T) {
	t.Parallel()

	raw := "### Analyse\n**Important** : le *rapport* mentionne `main.go` et ```bloc```\n## Conclusion\n- fin"
	got, err := Normalize(raw)
	require.NoError(t, err)
	require.NotContains(t, got, "**")
	require.NotContains(t, got, "`")
	for _, line := range strings.Split(got, "\n") {
		require.False(t, strings.HasPrefix(strings.TrimSpace(line), "#"), line)
	}
}
