package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed marks network, timeout and non-success status failures.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrParse marks an upstream entry or document that could not be decoded.
	ErrParse = errors.New("parse failed")
)

// FetchError describes a failed upstream request. It aborts the request it belongs to.
type FetchError struct {
	Target string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.Target, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: status %d", e.Target, e.Status)
	default:
		return fmt.Sprintf("fetch %s: %v", e.Target, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// ParseError describes one entry that could not be turned into a record.
// It is recovered locally: the entry is skipped and the feed continues.
type ParseError struct {
	Target string
	Entry  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s entry %q: %v", e.Target, e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
