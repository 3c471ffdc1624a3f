package metrics

import (
	"sync"
	"time"
)

// Observation is one call made on a MemoryRecorder.
type Observation struct {
	Operation string
	Status    string        // set by RecordOperation
	ErrorType string        // set by RecordError
	Duration  time.Duration // set by RecordDuration
}

// MemoryRecorder keeps every observation in memory. It backs assertions on
// pipeline instrumentation without a Prometheus registry.
type MemoryRecorder struct {
	mu           sync.Mutex
	observations []Observation
}

var _ Recorder = (*MemoryRecorder)(nil)

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) RecordOperation(operation, status string) {
	r.add(Observation{Operation: operation, Status: status})
}

func (r *MemoryRecorder) RecordDuration(operation string, seconds float64) {
	r.add(Observation{Operation: operation, Duration: time.Duration(seconds * float64(time.Second))})
}

func (r *MemoryRecorder) RecordError(operation, errorType string) {
	r.add(Observation{Operation: operation, ErrorType: errorType})
}

func (r *MemoryRecorder) add(o Observation) {
	r.mu.Lock()
	r.observations = append(r.observations, o)
	r.mu.Unlock()
}

// Observations returns a copy of everything recorded so far, in call order.
func (r *MemoryRecorder) Observations() []Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Observation(nil), r.observations...)
}

// Operations counts RecordOperation calls for operation with status.
func (r *MemoryRecorder) Operations(operation, status string) int {
	return r.count(func(o Observation) bool {
		return o.Operation == operation && o.Status == status
	})
}

// Errors counts RecordError calls for operation with errorType.
func (r *MemoryRecorder) Errors(operation, errorType string) int {
	return r.count(func(o Observation) bool {
		return o.Operation == operation && o.ErrorType == errorType
	})
}

// Timed reports whether a duration was recorded for operation.
func (r *MemoryRecorder) Timed(operation string) bool {
	return r.count(func(o Observation) bool {
		return o.Operation == operation && o.Status == "" && o.ErrorType == ""
	}) > 0
}

func (r *MemoryRecorder) count(match func(Observation) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.observations {
		if match(o) {
			n++
		}
	}
	return n
}
