package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// StatusCoder is implemented by errors that carry an HTTP status code, such
// as provider API errors. DefaultRetryable uses it to classify failures.
type StatusCoder interface {
	HTTPStatusCode() int
}

// retryableStatuses are the HTTP statuses treated as transient: request
// timeout, rate limiting, and server-side failures.
var retryableStatuses = map[int]struct{}{
	408: {},
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
	507: {},
	509: {},
}

// RetryableStatus reports whether an HTTP status code signals a transient
// failure worth retrying.
func RetryableStatus(code int) bool {
	_, ok := retryableStatuses[code]
	return ok
}

// transientPhrases are matched case-insensitively against error messages as
// a last resort, for providers that wrap transport failures in plain errors.
var transientPhrases = []string{
	"timeout",
	"timed out",
	"rate limit",
	"too many requests",
	"temporary failure",
	"connection reset",
	"connection refused",
}

// DefaultRetryable is the default retry predicate. It classifies an error
// as transient when it is a timeout, carries a retryable HTTP status, or
// looks like a recoverable network failure.
//
// Circuit breaker rejections and context cancellation are never retryable:
// the former will not change between attempts and the latter means the
// caller has given up.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	// A bare context error means the caller's own context ended. Deadline
	// errors from inside a transport arrive wrapped and classify below;
	// context.DeadlineExceeded itself satisfies net.Error, so it must be
	// ruled out by identity before that check.
	if err == context.Canceled || err == context.DeadlineExceeded {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return RetryableStatus(sc.HTTPStatusCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
