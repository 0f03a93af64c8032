package relevance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/relevance"
)

func TestClubOnlyAcceptsEverything(t *testing.T) {
	f := relevance.New(relevance.ModeClubOnly, relevance.DefaultKeywords)
	for _, text := range []string{"", "Arsenal win the league", "weather is nice"} {
		require.True(t, f.Match(text), text)
	}
}

func TestGeneralMode(t *testing.T) {
	f := relevance.New(relevance.ModeGeneral, relevance.DefaultKeywords)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "single keyword", text: "Transfer news: Casemiro linked with Saudi move", want: true},
		{name: "case insensitive", text: "OLD TRAFFORD roof leaks again", want: true},
		{name: "no keyword", text: "Liverpool beat Chelsea at Anfield", want: false},
		{name: "empty", text: "", want: false},
		{name: "substring false positive", text: "German university research grant", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, f.Match(tt.text))
		})
	}
}

func TestNewNormalizesKeywords(t *testing.T) {
	f := relevance.New(relevance.ModeGeneral, []string{"  Glazers ", "", "   "})
	require.True(t, f.Match("glazers out"))
	require.False(t, f.Match("nothing here"))
	require.Equal(t, "general", f.Mode().String())
}

func TestNilFilterAcceptsEverything(t *testing.T) {
	var f *relevance.Filter
	require.True(t, f.Match("anything at all"))
	require.Equal(t, relevance.ModeClubOnly, f.Mode())
}
