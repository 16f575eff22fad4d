package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"no limit", "résumé", 0, "résumé"},
		{"shorter", "été", 5, "été"},
		{"cuts on runes", "élève studieux", 5, "élève"},
		{"exact", "abc", 3, "abc"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, TruncateRunes(tc.in, tc.limit))
		})
	}
}

func TestRuneLenAndNow(t *testing.T) {
	t.Parallel()

	require.Equal(t, 6, RuneLen("résumé"))
	require.Equal(t, "UTC", NowUTC().Location().String())
}
