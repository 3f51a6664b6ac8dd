package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies provider failures for the retry policy.
type ErrorKind int

const (
	// KindUnavailable covers network failures, 5xx replies and anything
	// unclassified. Retried.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429. Retried after RetryAfter when known.
	KindRateLimited
	// KindInvalidResponse is output that is not JSON or fails the schema.
	// Retried once.
	KindInvalidResponse
	// KindTruncated is output cut off at MaxTokens. Never retried.
	KindTruncated
	// KindRejected is a 4xx other than 429, e.g. a bad key. Never retried.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalidResponse:
		return "invalid response"
	case KindTruncated:
		return "truncated"
	case KindRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

// Error is the error type returned by every provider.
type Error struct {
	Kind       ErrorKind
	Provider   string
	RetryAfter time.Duration

	// Content holds the offending output for invalid or truncated replies.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	msg := "llm"
	if e.Provider != "" {
		msg += " " + e.Provider
	}
	msg += ": " + e.Kind.String()
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of a provider error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// fromStatus classifies an SDK error by its HTTP status. A zero status
// means the request never got a reply.
func fromStatus(provider string, status int, err error) *Error {
	kind := KindUnavailable
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 400 && status < 500:
		kind = KindRejected
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}
