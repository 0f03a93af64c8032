package corpus_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/corpus"
	"github.com/DeafMist/club-pulse/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadMissingCorpus(t *testing.T) {
	store, err := corpus.New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Read(models.ClubNews)
	require.ErrorIs(t, err, corpus.ErrMissingCorpus)
}

func TestWriteReplacesPreviousBatch(t *testing.T) {
	store, err := corpus.New(t.TempDir(), nil)
	require.NoError(t, err)

	first := []models.Record{
		{Date: day(2024, 1, 1), Text: "old news", Source: "BBC Sport"},
		{Date: day(2024, 1, 1), Text: "older news", Source: "BBC Sport"},
	}
	require.NoError(t, store.Write(models.GeneralNews, first))

	second := []models.Record{
		{Date: day(2024, 2, 3), Text: "fresh, \"quoted\" headline", Source: "r/ManchesterUnited"},
	}
	require.NoError(t, store.Write(models.GeneralNews, second))

	got, err := store.Read(models.GeneralNews)
	require.NoError(t, err)
	require.Equal(t, second, got)

	entries, err := os.ReadDir(strings.TrimSuffix(store.Path(models.GeneralNews), "general-news.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger")
}

func TestWriteEmptyBatch(t *testing.T) {
	store, err := corpus.New(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, store.Write(models.ClubSubreddits, nil))
	got, err := store.Read(models.ClubSubreddits)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeToleratesExtraColumns(t *testing.T) {
	in := "source,text,date,compound\nSky News,united win,2024-03-04,0.5\n"
	got, err := corpus.Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []models.Record{{Date: day(2024, 3, 4), Text: "united win", Source: "Sky News"}}, got)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := corpus.Decode(strings.NewReader("date,text\n2024-01-01,x\n"))
	require.Error(t, err)

	_, err = corpus.Decode(strings.NewReader("date,text,source\nyesterday,x,y\n"))
	require.Error(t, err)
}

func TestWriteScored(t *testing.T) {
	var buf bytes.Buffer
	err := corpus.WriteScored(&buf, []models.ScoredRecord{{
		Record:   models.Record{Date: day(2024, 1, 2), Text: "great win", Source: "r/RedDevils"},
		Polarity: models.Polarity{Negative: 0, Neutral: 0.2, Positive: 0.8, Compound: 0.8},
		Label:    models.Positive,
	}})
	require.NoError(t, err)
	require.Equal(t,
		"date,text,source,compound,neg,neu,pos,sentiment\n2024-01-02,great win,r/RedDevils,0.8,0,0.2,0.8,Positive\n",
		buf.String())
}
