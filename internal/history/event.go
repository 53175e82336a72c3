package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/lodeworks/lode/internal/resource"
)

// Outcome classifies how a failed load was ultimately handled.
type Outcome string

const (
	// OutcomeFallbackUsed means a registered fallback value was
	// substituted after the first failure, with no retry.
	OutcomeFallbackUsed Outcome = "fallback_used"

	// OutcomeRetriedThenSucceeded means one or more retries eventually
	// produced the real value.
	OutcomeRetriedThenSucceeded Outcome = "retried_then_succeeded"

	// OutcomeRetriedThenFailed means the retry budget was exhausted and
	// the original error was surfaced to the caller.
	OutcomeRetriedThenFailed Outcome = "retried_then_failed"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeFallbackUsed, OutcomeRetriedThenSucceeded, OutcomeRetriedThenFailed:
		return true
	}
	return false
}

// Event is one recorded failure-path occurrence. Immutable once recorded.
type Event struct {
	// ID is a time-sortable UUIDv7 identifying this event.
	ID string `json:"id"`

	// Resource is the id of the chunk or component that failed to load.
	Resource string `json:"resource"`

	// Kind is the resource namespace the event belongs to.
	Kind resource.Kind `json:"kind"`

	// Outcome classifies the recovery path.
	Outcome Outcome `json:"outcome"`

	// Attempts is the number of resolver attempts made, including the
	// first. Fallback substitutions always record 1.
	Attempts int `json:"attempts"`

	// At is the recording time in UTC.
	At time.Time `json:"at"`
}

// NewEvent stamps a fresh event with a UUIDv7 id and the current time.
func NewEvent(kind resource.Kind, res string, outcome Outcome, attempts int) Event {
	return Event{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Resource: res,
		Kind:     kind,
		Outcome:  outcome,
		Attempts: attempts,
		At:       time.Now().UTC(),
	}
}

// Recorder accepts events. Implemented by Log, Store and Tee.
type Recorder interface {
	Record(Event)
}

// Stats is the aggregate view of a recorded event sequence. Derived by
// folding over the log, never stored.
type Stats struct {
	// TotalEvents is the number of recorded events.
	TotalEvents int `json:"total_events"`

	// ChunkFallbacks counts fallback substitutions for chunk loads.
	ChunkFallbacks int `json:"chunk_fallbacks"`

	// ComponentFallbacks counts fallback substitutions for component loads.
	ComponentFallbacks int `json:"component_fallbacks"`

	// RetryAttempts is the total number of retries performed across all
	// retried events (attempts beyond each event's first).
	RetryAttempts int `json:"retry_attempts"`

	// SuccessfulFallbacks counts events where the caller still received
	// a usable value: fallback substitutions plus retries that
	// eventually succeeded.
	SuccessfulFallbacks int `json:"successful_fallbacks"`
}

// fold accumulates one event into the aggregate.
func (s *Stats) fold(e Event) {
	s.TotalEvents++

	switch e.Outcome {
	case OutcomeFallbackUsed:
		if e.Kind == resource.KindChunk {
			s.ChunkFallbacks++
		} else {
			s.ComponentFallbacks++
		}
		s.SuccessfulFallbacks++
	case OutcomeRetriedThenSucceeded:
		s.RetryAttempts += e.Attempts - 1
		s.SuccessfulFallbacks++
	case OutcomeRetriedThenFailed:
		s.RetryAttempts += e.Attempts - 1
	}
}
