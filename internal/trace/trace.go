// Package trace implements C9: a per-opportunity timeline of the hops it
// passed through (ingress, debounce, route, decode, quote, build, submit),
// dumped as JSON for storage alongside simulation results, plus the
// post-mortem profitability extraction spec.md §8 scenario 5 describes. See
// spec.md §4.9.
package trace

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Kind names the pipeline hop a Step records.
type Kind string

const (
	KindIngress  Kind = "ingress"
	KindDebounce Kind = "debounce"
	KindRoute    Kind = "route"
	KindDecode   Kind = "decode"
	KindQuote    Kind = "quote"
	KindBuild    Kind = "build"
	KindSubmit   Kind = "submit"
)

// Step is a single hop in a Trace's timeline.
type Step struct {
	Sequence   int            `json:"sequence"`
	Kind       Kind           `json:"kind"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Trace owns the append-only list of Steps for one opportunity, identified
// by a monotonically-assigned id.
type Trace struct {
	ID   uint64 `json:"id"`
	Slot uint64 `json:"slot"`

	mu    sync.Mutex
	steps []Step
	now   func() time.Time
}

var idCounter uint64

// nextID hands out monotonically increasing trace ids. Uses a package-level
// atomic counter rather than a random/UUID id since spec.md §4.9 calls for
// "monotonically-assigned", not globally unique.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// New starts a Trace for the given slot, stamping its first step immediately
// isn't required — Steps are added explicitly via AddStep.
func New(slot uint64) *Trace {
	return newWithClock(slot, time.Now)
}

// newWithClock is New with an injectable clock, for deterministic
// relative_ms assertions in tests.
func newWithClock(slot uint64, now func() time.Time) *Trace {
	return &Trace{ID: nextID(), Slot: slot, now: now}
}

// AddStep appends a step with the given kind and attributes, stamped at the
// current time. Safe for concurrent use since a single opportunity may be
// touched by more than one worker goroutine across its hops (C6 detection
// vs C7 build vs C8 submit).
func (t *Trace) AddStep(kind Kind, attrs map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, Step{
		Sequence:   len(t.steps),
		Kind:       kind,
		Attributes: attrs,
		Timestamp:  t.now(),
	})
}

// Steps returns a snapshot copy of the recorded steps.
func (t *Trace) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// dumpStep is the JSON shape DumpJSON emits: the step plus relative_ms since
// the trace's first step.
type dumpStep struct {
	Sequence   int            `json:"sequence"`
	Kind       Kind           `json:"kind"`
	Attributes map[string]any `json:"attributes,omitempty"`
	RelativeMs int64          `json:"relative_ms"`
}

type dump struct {
	ID    uint64     `json:"id"`
	Slot  uint64     `json:"slot"`
	Steps []dumpStep `json:"steps"`
}

// DumpJSON renders the trace as JSON with relative_ms computed against the
// first step's timestamp, per spec.md §4.9.
func (t *Trace) DumpJSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := dump{ID: t.ID, Slot: t.Slot, Steps: make([]dumpStep, len(t.steps))}
	if len(t.steps) == 0 {
		return json.Marshal(d)
	}

	start := t.steps[0].Timestamp
	for i, s := range t.steps {
		d.Steps[i] = dumpStep{
			Sequence:   s.Sequence,
			Kind:       s.Kind,
			Attributes: s.Attributes,
			RelativeMs: s.Timestamp.Sub(start).Milliseconds(),
		}
	}
	return json.Marshal(d)
}
