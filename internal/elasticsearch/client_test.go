package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	bulk     []string
	search   map[string]any
	response string
}

func (f *fakeES) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/_bulk"):
			sc := bufio.NewScanner(strings.NewReader(string(body)))
			for sc.Scan() {
				f.bulk = append(f.bulk, sc.Text())
			}
			_, _ = io.WriteString(w, f.response)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			require.NoError(t, json.Unmarshal(body, &f.search))
			_, _ = io.WriteString(w, f.response)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, f *fakeES) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "club-pulse", nil)
	require.NoError(t, err)
	return c
}

func sampleDoc(id string) models.IndexedRecord {
	return models.IndexedRecord{
		ID:    id,
		Batch: models.ClubNews,
		ScoredRecord: models.ScoredRecord{
			Record:   models.Record{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Text: "great win", Source: "BBC Sport"},
			Polarity: models.Polarity{Positive: 0.6, Neutral: 0.4, Compound: 0.62},
			Label:    models.Positive,
		},
	}
}

func TestIndexRecordsWritesBulkPairs(t *testing.T) {
	f := &fakeES{response: `{"errors":false,"items":[{"index":{"status":201}},{"index":{"status":200}}]}`}
	c := newTestClient(t, f)

	n, err := c.IndexRecords(context.Background(), []models.IndexedRecord{sampleDoc("a"), sampleDoc("b")})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Len(t, f.bulk, 4)
	require.JSONEq(t, `{"index":{"_index":"club-pulse","_id":"a"}}`, f.bulk[0])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bulk[1]), &doc))
	require.Equal(t, "great win", doc["text"])
	require.Equal(t, "Positive", doc["sentiment"])
	require.Equal(t, "club-news", doc["batch"])
	require.InDelta(t, 0.62, doc["compound"], 1e-9)
}

func TestIndexRecordsPartialFailure(t *testing.T) {
	f := &fakeES{response: `{"errors":true,"items":[{"index":{"status":201}},{"index":{"status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}]}`}
	c := newTestClient(t, f)

	n, err := c.IndexRecords(context.Background(), []models.IndexedRecord{sampleDoc("a"), sampleDoc("b")})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestIndexRecordsAllRejected(t *testing.T) {
	f := &fakeES{response: `{"errors":true,"items":[{"index":{"status":400,"error":{"type":"x","reason":"y"}}}]}`}
	c := newTestClient(t, f)

	_, err := c.IndexRecords(context.Background(), []models.IndexedRecord{sampleDoc("a")})
	require.Error(t, err)
}

func TestIndexRecordsEmptyIsNoop(t *testing.T) {
	f := &fakeES{}
	c := newTestClient(t, f)

	n, err := c.IndexRecords(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, f.bulk)
}

func TestSearchRecords(t *testing.T) {
	f := &fakeES{response: `{"hits":{"total":{"value":7},"hits":[{"_source":{"id":"a","batch":"club-news","date":"2025-03-01T00:00:00Z","text":"great win","source":"BBC Sport","compound":0.62,"sentiment":"Positive"}}]}}`}
	c := newTestClient(t, f)

	res, err := c.SearchRecords(context.Background(), SearchParams{
		Query:     "win",
		Batch:     "club-news",
		Sentiment: "Positive",
		Size:      500,
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, res.Total)
	require.Len(t, res.Items, 1)
	require.Equal(t, "BBC Sport", res.Items[0].Source)
	require.Equal(t, models.Positive, res.Items[0].Label)

	require.EqualValues(t, 200, f.search["size"])
	query := f.search["query"].(map[string]any)["bool"].(map[string]any)
	require.Len(t, query["must"], 1)
	require.Len(t, query["filter"], 2)
}

func TestBuildQueryMatchAll(t *testing.T) {
	q := buildQuery(SearchParams{})
	must := q["bool"].(map[string]any)["must"].([]map[string]any)
	require.Contains(t, must[0], "match_all")
}

func TestBuildSort(t *testing.T) {
	require.Equal(t, []map[string]any{{"date": map[string]any{"order": "desc"}}}, buildSort(""))
	require.Equal(t, []map[string]any{{"compound": map[string]any{"order": "asc"}}}, buildSort("compound:asc"))
}
