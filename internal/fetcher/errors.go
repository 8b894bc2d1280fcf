package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindOther is any failure not covered by a more specific kind.
	KindOther Kind = iota

	// KindTimeout means the request exceeded its timeout.
	KindTimeout

	// KindDNS means the host name could not be resolved.
	KindDNS

	// KindConnRefused means the server actively refused the connection.
	KindConnRefused

	// KindStatus means the server answered with a non-2xx status.
	KindStatus
)

// String returns a short name for logging.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDNS:
		return "dns"
	case KindConnRefused:
		return "connection_refused"
	case KindStatus:
		return "status"
	default:
		return "other"
	}
}

// Sentinel errors matched by FetchError.Is.
var (
	// ErrTimeout matches fetch failures caused by a timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrDNS matches fetch failures caused by name resolution.
	ErrDNS = errors.New("dns lookup failed")

	// ErrConnRefused matches fetch failures caused by a refused connection.
	ErrConnRefused = errors.New("connection refused")

	// ErrStatus matches fetch failures caused by a non-2xx response.
	ErrStatus = errors.New("unexpected status code")
)

// FetchError describes a failed fetch.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Kind is the failure category.
	Kind Kind

	// StatusCode is set when Kind is KindStatus.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel of the error's Kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrDNS:
		return e.Kind == KindDNS
	case ErrConnRefused:
		return e.Kind == KindConnRefused
	case ErrStatus:
		return e.Kind == KindStatus
	}
	return false
}

// classify maps a transport error onto a Kind.
func classify(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindOther
}
