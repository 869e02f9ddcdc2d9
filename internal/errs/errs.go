// Package errs defines the error taxonomy shared across the arbitrage
// pipeline: a closed set of kinds plus sentinel values processors use to
// decide whether to log-and-drop, retry, or abort.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of propagation and logging.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindStream
	KindRPC
	KindDedupSkip
	KindNoOpportunity
	KindSubmission
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindStream:
		return "stream"
	case KindRPC:
		return "rpc"
	case KindDedupSkip:
		return "dedup_skip"
	case KindNoOpportunity:
		return "no_opportunity"
	case KindSubmission:
		return "submission"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on
// classification without string-matching messages.
type Error struct {
	Kind Kind
	Op   string // component/operation that produced the error, e.g. "dex.meteoradlmm.Decode"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel errors for conditions that are not failures in the usual sense
// but still need to short-circuit a caller.
var (
	// ErrDedupSkip indicates a fire was suppressed by the backoff window.
	ErrDedupSkip = New(KindDedupSkip, "arb.dedup", errors.New("suppressed within backoff window"))
	// ErrNoOpportunity indicates the detector found no cycle exceeding the floor.
	ErrNoOpportunity = New(KindNoOpportunity, "arb.detect", errors.New("no cycle exceeds spread floor"))
	// ErrUnsupportedEncoding is returned when the mapper is handed a "fully
	// parsed" transaction instead of raw account keys + instructions; this
	// is unrecoverable by design, see DESIGN.md Open Question (b).
	ErrUnsupportedEncoding = New(KindDecode, "chain.ToUnified", errors.New("fully parsed encoding is not supported"))
	// ErrShortBuffer indicates account bytes were too short for the expected layout.
	ErrShortBuffer = errors.New("account data shorter than expected layout")
	// ErrBadDiscriminator indicates the leading bytes did not match the expected discriminator.
	ErrBadDiscriminator = errors.New("account discriminator mismatch")
)
