// Package report records the per-entity outcome of a reconciliation run.
//
// Services record into a Recorder carried on the context. The finished
// Report makes partial success observable: a run can complete with some
// entities failed, and callers decide what that means for them.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/utc"
)

// Status is the outcome of reconciling one entity.
type Status string

// Outcome statuses.
const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusCreated, StatusUpdated, StatusUnchanged, StatusSkipped, StatusFailed}

// Kind names an entity kind.
type Kind string

// Entity kinds.
const (
	KindShop        Kind = "shop"
	KindChannel     Kind = "channel"
	KindAttribute   Kind = "attribute"
	KindProductType Kind = "productType"
	KindPageType    Kind = "pageType"
	KindCategory    Kind = "category"
	KindProduct     Kind = "product"
	KindVariant     Kind = "variant"
)

// Outcome is the result for a single entity.
type Outcome struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Report aggregates the outcomes of one run.
type Report struct {
	RunID      string    `json:"runId" yaml:"runId"`
	StartedAt  utc.Time  `json:"startedAt" yaml:"startedAt"`
	FinishedAt utc.Time  `json:"finishedAt" yaml:"finishedAt"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Time.Sub(r.StartedAt.Time)
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Counts returns the number of outcomes per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// HasFailures reports whether any entity failed.
func (r *Report) HasFailures() bool {
	return r.Count(StatusFailed) > 0
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	return r.Filter(func(o Outcome) bool { return o.Status == StatusFailed })
}

// Filter returns the outcomes matching keep.
func (r *Report) Filter(keep func(Outcome) bool) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// Find returns the last outcome recorded for kind and name.
func (r *Report) Find(kind Kind, name string) (Outcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if o := r.Outcomes[i]; o.Kind == kind && o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Summary renders the status counts, e.g. "2 created, 5 unchanged, 1 failed".
func (r *Report) Summary() string {
	counts := r.Counts()
	var parts []string
	for _, s := range Statuses {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "nothing to reconcile"
	}
	return strings.Join(parts, ", ")
}

// Sorted returns a copy of the outcomes ordered by kind then name.
func (r *Report) Sorted() []Outcome {
	out := make([]Outcome, len(r.Outcomes))
	copy(out, r.Outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Recorder collects outcomes. It is safe for concurrent use, and a nil
// Recorder discards everything.
type Recorder struct {
	mu      sync.Mutex
	runID   string
	started utc.Time
	entries []Outcome
}

// NewRecorder starts recording a run.
func NewRecorder(runID string, startedAt utc.Time) *Recorder {
	return &Recorder{runID: runID, started: startedAt}
}

// Record appends an outcome.
func (r *Recorder) Record(kind Kind, name string, status Status, reason string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Outcome{Kind: kind, Name: name, Status: status, Reason: reason})
}

// Created records a created entity.
func (r *Recorder) Created(kind Kind, name string) {
	r.Record(kind, name, StatusCreated, "")
}

// Updated records an updated entity.
func (r *Recorder) Updated(kind Kind, name string) {
	r.Record(kind, name, StatusUpdated, "")
}

// Unchanged records an entity that needed no mutation.
func (r *Recorder) Unchanged(kind Kind, name string) {
	r.Record(kind, name, StatusUnchanged, "")
}

// Skipped records an entity that was deliberately not reconciled.
func (r *Recorder) Skipped(kind Kind, name, reason string) {
	r.Record(kind, name, StatusSkipped, reason)
}

// Failed records a failed entity.
func (r *Recorder) Failed(kind Kind, name string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	r.Record(kind, name, StatusFailed, reason)
}

// Finish returns the report accumulated so far.
func (r *Recorder) Finish(finishedAt utc.Time) *Report {
	if r == nil {
		return &Report{FinishedAt: finishedAt}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	outcomes := make([]Outcome, len(r.entries))
	copy(outcomes, r.entries)
	return &Report{
		RunID:      r.runID,
		StartedAt:  r.started,
		FinishedAt: finishedAt,
		Outcomes:   outcomes,
	}
}

type recorderKey struct{}

// WithRecorder attaches r to ctx.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the Recorder on ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}
