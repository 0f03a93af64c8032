package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/processing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "lowercase and stopwords", input: "The Red Devils are BACK", want: "red devils back"},
		{name: "remove urls", input: "Check https://example.com/x and www.site.org now", want: "check"},
		{name: "remove mentions", input: "@rashford u/fan r/soccer scores twice", want: "scores twice"},
		{name: "remove entities", input: "Fernandes &amp; Mount start", want: "fernandes mount start"},
		{name: "keep punctuation allow-list", input: "What a goal!!! Really?", want: "goal!!! really?"},
		{name: "strip symbols", input: "£50m bid — done #MUFC", want: "50m bid done mufc"},
		{name: "collapse whitespace", input: "derby\n\nday\t here", want: "derby day"},
		{name: "only stopwords", input: "it is what it is", want: ""},
		{name: "spliced scheme", input: "ht-tp://bad.link kept", want: "kept"},
		{name: "no-break space", input: "united\u00a0win", want: "united win"},
		{name: "vertical tab", input: "united\vwin", want: "united win"},
		{name: "em space", input: "united\u2003win", want: "united win"},
		{name: "no-break space before stopword", input: "Glazers\u00a0OUT", want: "glazers"},
		{name: "url before no-break space", input: "https://t.co/x\u00a0derby", want: "derby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Ten Hag OUT!!! https://t.co/abc",
		"w_ww-example is gone",
		"@user &quot;Quote&quot; r/ManchesterUnited",
		"Casemiro's late winner, at Old Trafford? Unreal.",
		"Ünïcödé characters and ÉMOJI 🔥🔥",
		"united\u00a0win\u2003away\vday",
	}

	for _, in := range inputs {
		once := processing.Normalize(in)
		require.Equal(t, once, processing.Normalize(once), "input %q", in)
	}
}

func TestRemoveURLs(t *testing.T) {
	require.Equal(t, "", processing.RemoveURLs(""))
	require.Equal(t, "see  now", processing.RemoveURLs("see https://example.com now"))
	require.Equal(t, "go  or ", processing.RemoveURLs("go www.a.com or http://b.org"))
}

func TestIsStopword(t *testing.T) {
	require.True(t, processing.IsStopword("the"))
	require.False(t, processing.IsStopword("united"))
}

func TestRecordID(t *testing.T) {
	day := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	id1 := processing.RecordID("BBC Sport", "united win", day)
	id2 := processing.RecordID("BBC Sport", "united win", day.Add(5*time.Hour))
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, processing.RecordID("Sky News", "united win", day))
}
