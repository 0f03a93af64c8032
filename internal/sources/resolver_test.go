package sources_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/sources"
)

func TestResolveDefaultRules(t *testing.T) {
	r := sources.NewResolver(nil)

	tests := []struct {
		title string
		want  string
	}{
		{title: "BBC Sport Football", want: "BBC Sport"},
		{title: "Football | The Guardian", want: "The Guardian"},
		{title: "ESPN.com - Top News", want: "ESPN"},
		{title: "MEN - Manchester United FC", want: "Manchester Evening News"},
		{title: "My Random Blog", want: "My Random Blog"},
		{title: "united ARE back", want: "United Are Back"},
		{title: "", want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, r.Resolve(tt.title))
		})
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	r := sources.NewResolver([]sources.Rule{
		{Match: "Sky", Name: "Sky News"},
		{Match: "sky sports", Name: "Sky Sports"},
	})
	require.Equal(t, "Sky News", r.Resolve("Sky Sports | Premier League"))
}

func TestNewResolverDropsBlankRules(t *testing.T) {
	r := sources.NewResolver([]sources.Rule{{Match: " ", Name: "x"}, {Match: "blog", Name: ""}, {Match: "Pod", Name: "The Pod"}})
	require.Equal(t, "The Pod", r.Resolve("United Pod"))
	require.Equal(t, "Random Feed", r.Resolve("random feed"))
	require.Equal(t, "Fan Blog", r.Resolve("fan blog"))
}
