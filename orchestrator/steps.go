package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/avenkit/support-agent/core"
)

// ProgressFunc receives a snapshot of the run after every step
// mutation. It is invoked synchronously on the request goroutine; no
// step runs concurrently with the callback.
type ProgressFunc func(steps []core.Step, results []core.SearchResult)

// stepTracker owns the ordered Step list for one run and enforces the
// forward-only status transitions (pending -> active -> complete|error).
type stepTracker struct {
	steps      []core.Step
	results    []core.SearchResult
	onProgress ProgressFunc
}

func newStepTracker(onProgress ProgressFunc) *stepTracker {
	return &stepTracker{onProgress: onProgress}
}

// add appends a pending step and returns its index.
func (t *stepTracker) add(kind core.StepKind, title, description string) int {
	t.steps = append(t.steps, core.Step{
		ID:          uuid.New().String(),
		Kind:        kind,
		Title:       title,
		Description: description,
		Status:      core.StatusPending,
		Timestamp:   time.Now(),
	})
	t.notify()
	return len(t.steps) - 1
}

// activate marks the step active. At most one step is active at a time;
// callers complete or fail a step before activating the next.
func (t *stepTracker) activate(i int) {
	t.steps[i].Status = core.StatusActive
	t.steps[i].Timestamp = time.Now()
	t.notify()
}

// complete marks the step done, recording details and any evidence it
// produced.
func (t *stepTracker) complete(i int, details string, results []core.SearchResult) {
	t.steps[i].Status = core.StatusComplete
	t.steps[i].Timestamp = time.Now()
	t.steps[i].Details = details
	t.steps[i].Results = results
	if len(results) > 0 {
		t.results = append(t.results, results...)
	}
	t.notify()
}

// fail marks the step errored.
func (t *stepTracker) fail(i int, details string) {
	t.steps[i].Status = core.StatusError
	t.steps[i].Timestamp = time.Now()
	t.steps[i].Details = details
	t.notify()
}

// setResults replaces the run-level result list (used after reranking).
func (t *stepTracker) setResults(results []core.SearchResult) {
	t.results = results
}

func (t *stepTracker) notify() {
	if t.onProgress == nil {
		return
	}
	steps := make([]core.Step, len(t.steps))
	copy(steps, t.steps)
	results := make([]core.SearchResult, len(t.results))
	copy(results, t.results)
	t.onProgress(steps, results)
}
