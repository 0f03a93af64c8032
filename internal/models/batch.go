package models

import (
	"errors"
	"fmt"
)

// ErrUnknownBatch is returned for a source/scope pair or key outside the four batches.
var ErrUnknownBatch = errors.New("unknown batch")

// Source selects which upstream family a batch is fetched from.
type Source string

// Scope selects whether targets are already club-specific or need keyword filtering.
type Scope string

const (
	SourceReddit Source = "reddit"
	SourceNews   Source = "news"

	ScopeClub    Scope = "club"
	ScopeGeneral Scope = "general"
)

// BatchKey names one corpus snapshot. Every write to a key replaces the previous batch.
type BatchKey string

const (
	ClubSubreddits    BatchKey = "club-subreddits"
	GeneralSubreddits BatchKey = "general-subreddits"
	ClubNews          BatchKey = "club-news"
	GeneralNews       BatchKey = "general-news"
)

// BatchKeys lists every key in display order.
var BatchKeys = []BatchKey{ClubSubreddits, GeneralSubreddits, ClubNews, GeneralNews}

// KeyFor maps a source/scope pair to its batch key.
func KeyFor(src Source, scope Scope) (BatchKey, error) {
	switch {
	case src == SourceReddit && scope == ScopeClub:
		return ClubSubreddits, nil
	case src == SourceReddit && scope == ScopeGeneral:
		return GeneralSubreddits, nil
	case src == SourceNews && scope == ScopeClub:
		return ClubNews, nil
	case src == SourceNews && scope == ScopeGeneral:
		return GeneralNews, nil
	}
	return "", fmt.Errorf("%w %q/%q", ErrUnknownBatch, src, scope)
}

// ParseBatchKey validates a raw key.
func ParseBatchKey(raw string) (BatchKey, error) {
	for _, k := range BatchKeys {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w key %q", ErrUnknownBatch, raw)
}
