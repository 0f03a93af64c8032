package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/fetch"
	"github.com/DeafMist/club-pulse/internal/relevance"
)

const testUA = "test:club-pulse:v0"

func newClient(retries int) *fetch.Client {
	return fetch.NewClient(fetch.ClientConfig{
		UserAgent:      testUA,
		Timeout:        2 * time.Second,
		RetryAttempts:  retries,
		RetryBaseDelay: time.Millisecond,
	}, nil)
}

func post(title string, created int64) string {
	return fmt.Sprintf(`{"kind":"t3","data":{"title":%q,"created_utc":%d}}`, title, created)
}

func listing(after string, posts ...string) string {
	cursor := "null"
	if after != "" {
		cursor = fmt.Sprintf("%q", after)
	}
	children := ""
	for i, p := range posts {
		if i > 0 {
			children += ","
		}
		children += p
	}
	return fmt.Sprintf(`{"data":{"children":[%s],"after":%s}}`, children, cursor)
}

func TestRedditFetchSkipsEmptyTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/ManchesterUnited/hot.json", r.URL.Path)
		require.Equal(t, testUA, r.Header.Get("User-Agent"))
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(listing("",
			post("Bruno scores a stunning free kick", 1704110400),
			post("   ", 1704110400),
			post("Mainoo signs new contract", 1704196800),
		)))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL}, nil)
	records, counts, err := f.Fetch(context.Background(), []string{"ManchesterUnited"}, relevance.New(relevance.ModeClubOnly, nil))
	require.NoError(t, err)

	require.Len(t, records, 2)
	require.Equal(t, "bruno scores stunning free kick", records[0].Text)
	require.Equal(t, "r/ManchesterUnited", records[0].Source)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), records[1].Date)
	require.Equal(t, 2, counts["r/ManchesterUnited"])
	require.Equal(t, len(records), counts.Total())
}

func TestRedditFetchFollowsCursor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("after") {
		case "":
			w.Write([]byte(listing("t3_b", post("Old Trafford sold out", 1704110400))))
		case "t3_b":
			w.Write([]byte(listing("", post("Man Utd pre-season tour", 1704110400))))
		default:
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL}, nil)
	records, _, err := f.Fetch(context.Background(), []string{"soccer"}, relevance.New(relevance.ModeGeneral, relevance.DefaultKeywords))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int32(2), calls.Load())
}

func TestRedditFetchStopsAtPageCap(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Write([]byte(listing(fmt.Sprintf("t3_%d", n), post("Arsenal news only", 1704110400))))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL, MaxPages: 3}, nil)
	records, counts, err := f.Fetch(context.Background(), []string{"football"}, relevance.New(relevance.ModeGeneral, relevance.DefaultKeywords))
	require.NoError(t, err)
	require.Empty(t, records)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, 0, counts["r/football"])
	require.Contains(t, counts, "r/football")
}

func TestRedditFetchStopsAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing("more",
			post("Shaw injured again", 1704110400),
			post("Maguire header wins it", 1704110400),
			post("Dorgu debut rated", 1704110400),
		)))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL, Limit: 2}, nil)
	records, counts, err := f.Fetch(context.Background(), []string{"RedDevils"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 2, counts["r/RedDevils"])
}

func TestRedditFetchDropsDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing("",
			post("Carrick appointed", 1704110400),
			post("Carrick appointed!", 1704110400),
			post("Carrick appointed", 1704110400),
		)))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL}, nil)
	records, counts, err := f.Fetch(context.Background(), []string{"RedDevils"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 2, counts.Total())
}

func TestRedditFetchErrorStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(2), fetch.RedditConfig{BaseURL: server.URL}, nil)
	_, _, err := f.Fetch(context.Background(), []string{"ManchesterUnited"}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, fetch.ErrFetchFailed))

	var fe *fetch.FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, http.StatusForbidden, fe.Status)
	require.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestRedditFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(listing("", post("Yoro back in training", 1704110400))))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(2), fetch.RedditConfig{BaseURL: server.URL}, nil)
	records, _, err := f.Fetch(context.Background(), []string{"ManchesterUnited"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int32(3), calls.Load())
}

func TestRedditFetchMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	f := fetch.NewRedditFetcher(newClient(0), fetch.RedditConfig{BaseURL: server.URL}, nil)
	_, _, err := f.Fetch(context.Background(), []string{"ManchesterUnited"}, nil)
	require.ErrorIs(t, err, fetch.ErrFetchFailed)
}
