package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/DeafMist/club-pulse/internal/corpus"
	"github.com/DeafMist/club-pulse/internal/fetch"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/validation"
)

// ErrEmptyCorpus is returned by Analyze when the batch was never fetched.
var ErrEmptyCorpus = errors.New("empty corpus")

type emptyCorpusError struct {
	key models.BatchKey
	err error
}

func (e *emptyCorpusError) Error() string {
	return fmt.Sprintf("no corpus for %s: %v", e.key, e.err)
}

func (e *emptyCorpusError) Unwrap() error { return e.err }

func (e *emptyCorpusError) Is(target error) bool { return target == ErrEmptyCorpus }

// UserMessage turns any pipeline error into one line fit for an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var fetchErr *fetch.FetchError
	var inputErr *validation.ValidationInputError

	switch {
	case errors.Is(err, ErrEmptyCorpus):
		return "No data for this batch yet: run analysis first."
	case errors.As(err, &fetchErr):
		return "Fetch failed: " + fetchErr.Error()
	case errors.Is(err, validation.ErrMissingGroundTruth):
		return "The file has no manual_label column, so accuracy cannot be measured."
	case errors.As(err, &inputErr):
		return "Invalid validation file: " + inputErr.Error()
	case errors.Is(err, models.ErrUnknownBatch):
		return "Unknown batch: choose reddit or news, club or general."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	default:
		return "Something went wrong: " + err.Error()
	}
}

// HTTPStatus maps the error taxonomy to a response status.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyCorpus) || errors.Is(err, corpus.ErrMissingCorpus) {
		return http.StatusNotFound
	}
	if errors.Is(err, models.ErrUnknownBatch) {
		return http.StatusBadRequest
	}
	if errors.Is(err, validation.ErrMissingGroundTruth) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, validation.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, fetch.ErrFetchFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorKind labels failures for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCorpus):
		return "empty_corpus"
	case errors.Is(err, fetch.ErrFetchFailed):
		return "fetch"
	case errors.Is(err, validation.ErrInvalidInput):
		return "input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "internal"
	}
}
