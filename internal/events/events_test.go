package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/events"
	"github.com/DeafMist/club-pulse/internal/models"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestDecodeRunRequest(t *testing.T) {
	req, err := events.DecodeRunRequest([]byte(`{"id":" abc ","source":"Reddit","scope":"general"}`))
	require.NoError(t, err)
	require.Equal(t, "abc", req.ID)

	key, err := req.Key()
	require.NoError(t, err)
	require.Equal(t, models.GeneralSubreddits, key)
}

func TestDecodeRunRequestAssignsID(t *testing.T) {
	req, err := events.DecodeRunRequest([]byte(`{"source":"news","scope":"club"}`))
	require.NoError(t, err)
	_, err = uuid.Parse(req.ID)
	require.NoError(t, err)
}

func TestDecodeRunRequestRejects(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{"source":"twitter","scope":"club"}`,
		`{"source":"news"}`,
	} {
		_, err := events.DecodeRunRequest([]byte(payload))
		require.Error(t, err, payload)
	}
}

func TestPublishBatch(t *testing.T) {
	w := &captureWriter{}
	p := events.NewPublisherWithWriter(w, nil)

	b := aggregate.FromLabels([]models.Label{models.Positive, models.Negative})
	ev := events.BatchEvent{
		RunID:     "run-1",
		Kind:      events.KindAnalyzed,
		Key:       models.ClubNews,
		Total:     2,
		Breakdown: &b,
		At:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishBatch(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	require.Equal(t, "club-news", string(w.msgs[0].Key))

	var got events.BatchEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, ev.RunID, got.RunID)
	require.Equal(t, 50.0, got.Breakdown.PositivePct)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestPublishBatchWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := events.NewPublisherWithWriter(&captureWriter{err: boom}, nil)

	err := p.PublishBatch(context.Background(), events.BatchEvent{Key: models.ClubNews})
	require.ErrorIs(t, err, boom)
}
