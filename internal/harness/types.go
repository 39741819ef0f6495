package harness

import (
	"github.com/chw3k5/mypysql/internal/engine"
	"github.com/chw3k5/mypysql/internal/ir"
)

// Trace event types.
const (
	EventResult = "result"
	EventError  = "error"
)

// TraceEvent records the outcome of one query step.
type TraceEvent struct {
	Type  string `json:"type"` // "result" or "error"
	Step  string `json:"step"`
	Query string `json:"query"`
	Seq   int64  `json:"seq"`

	// Set for results.
	Shape   ir.Shape    `json:"shape,omitempty"`
	Key     string      `json:"key,omitempty"`
	Staged  bool        `json:"staged,omitempty"`
	Columns []string    `json:"columns,omitempty"`
	Records []ir.Record `json:"records,omitempty"`

	// Set for errors.
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RecordKeys returns the formatted key of every record, in order.
func (e *TraceEvent) RecordKeys() []string {
	keys := make([]string, len(e.Records))
	for i, rec := range e.Records {
		keys[i] = ir.Format(rec.Key)
	}
	return keys
}

// Record returns the record whose formatted key is key, or nil.
func (e *TraceEvent) Record(key string) *ir.Record {
	for i := range e.Records {
		if ir.Format(e.Records[i].Key) == key {
			return &e.Records[i]
		}
	}
	return nil
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per query step, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// LiveStaged lists the staged results still present after the last step.
	LiveStaged []string `json:"live_staged,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddResultTrace records a successful step.
func (r *Result) AddResultTrace(step, query string, seq int64, res *engine.Result) *TraceEvent {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    EventResult,
		Step:    step,
		Query:   query,
		Seq:     seq,
		Shape:   res.Shape,
		Key:     res.Key,
		Staged:  res.Staged,
		Columns: res.Columns,
		Records: res.Records,
	})
	return &r.Trace[len(r.Trace)-1]
}

// AddErrorTrace records a failed step.
func (r *Result) AddErrorTrace(step, query string, seq int64, err error) *TraceEvent {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventError,
		Step:      step,
		Query:     query,
		Seq:       seq,
		ErrorCode: string(ir.CodeOf(err)),
		Message:   err.Error(),
	})
	return &r.Trace[len(r.Trace)-1]
}

// Event returns the trace event of the named step, or nil.
func (r *Result) Event(step string) *TraceEvent {
	for i := range r.Trace {
		if r.Trace[i].Step == step {
			return &r.Trace[i]
		}
	}
	return nil
}
