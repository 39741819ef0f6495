package harness

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/chw3k5/mypysql/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventResult:
				fmt.Fprintf(&buf, "  [%d] %s: %d records keyed on %s\n", event.Seq, event.Step, len(event.Records), event.Key)
			case EventError:
				fmt.Fprintf(&buf, "  [%d] %s: error %s\n", event.Seq, event.Step, orNone(event.ErrorCode))
			}
		}
	}

	return buf.String()
}

// resultEvent returns the successful event of step.
func resultEvent(trace []TraceEvent, typ, step string) (*TraceEvent, error) {
	for i := range trace {
		if trace[i].Step != step {
			continue
		}
		if trace[i].Type != EventResult {
			return nil, &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("step %s to return records", step),
				Actual:   fmt.Sprintf("error %s", orNone(trace[i].ErrorCode)),
				Trace:    trace,
			}
		}
		return &trace[i], nil
	}
	return nil, &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("step %s in trace", step),
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertRecordCount checks the number of records a step returned.
func assertRecordCount(trace []TraceEvent, assertion Assertion) error {
	event, err := resultEvent(trace, AssertRecordCount, assertion.Step)
	if err != nil {
		return err
	}
	if len(event.Records) != *assertion.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d records from %s", *assertion.Count, assertion.Step),
			Actual:   fmt.Sprintf("%d records", len(event.Records)),
			Trace:    trace,
		}
	}
	return nil
}

// assertColumnValues checks the formatted values of one column of one record.
// Order matters: folded values are sorted, so the expectation is too.
func assertColumnValues(trace []TraceEvent, assertion Assertion) error {
	event, err := resultEvent(trace, AssertColumnValues, assertion.Step)
	if err != nil {
		return err
	}

	rec := event.Record(assertion.Key)
	if rec == nil {
		return &AssertionError{
			Type:     AssertColumnValues,
			Expected: fmt.Sprintf("record %s in %s", assertion.Key, assertion.Step),
			Actual:   fmt.Sprintf("keys %v", event.RecordKeys()),
			Trace:    trace,
		}
	}
	col := rec.Column(assertion.Column)
	if col == nil {
		return &AssertionError{
			Type:     AssertColumnValues,
			Expected: fmt.Sprintf("column %s", assertion.Column),
			Actual:   fmt.Sprintf("columns %v", event.Columns),
			Trace:    trace,
		}
	}

	actual := formattedValues(*col)
	if !slices.Equal(actual, assertion.Values) {
		return &AssertionError{
			Type:     AssertColumnValues,
			Expected: fmt.Sprintf("%s.%s = %v", assertion.Key, assertion.Column, assertion.Values),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertValueRange checks that every numeric value of a column, across all
// records, lies strictly between the bounds.
func assertValueRange(trace []TraceEvent, assertion Assertion) error {
	event, err := resultEvent(trace, AssertValueRange, assertion.Step)
	if err != nil {
		return err
	}

	for _, rec := range event.Records {
		col := rec.Column(assertion.Column)
		if col == nil {
			continue
		}
		for _, v := range columnValues(*col) {
			f, ok := numeric(v)
			if !ok {
				continue
			}
			if (assertion.Min != nil && f <= *assertion.Min) || (assertion.Max != nil && f >= *assertion.Max) {
				return &AssertionError{
					Type:     AssertValueRange,
					Expected: fmt.Sprintf("%s within %s", assertion.Column, describeRange(assertion.Min, assertion.Max)),
					Actual:   fmt.Sprintf("%s on record %s", ir.Format(v), ir.Format(rec.Key)),
					Trace:    trace,
				}
			}
		}
	}
	return nil
}

// assertSameRecords checks that steps returned byte-identical records.
func assertSameRecords(trace []TraceEvent, assertion Assertion) error {
	var first []byte
	for i, step := range assertion.Steps {
		event, err := resultEvent(trace, AssertSameRecords, step)
		if err != nil {
			return err
		}
		data, err := json.Marshal(event.Records)
		if err != nil {
			return fmt.Errorf("marshal records of %s: %w", step, err)
		}
		if i == 0 {
			first = data
			continue
		}
		if string(data) != string(first) {
			return &AssertionError{
				Type:     AssertSameRecords,
				Expected: fmt.Sprintf("%s to match %s", step, assertion.Steps[0]),
				Actual:   fmt.Sprintf("%s\nvs %s", data, first),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertStagedTables checks how many staged results were still live.
func assertStagedTables(live []string, assertion Assertion) error {
	if len(live) != *assertion.Count {
		return &AssertionError{
			Type:     AssertStagedTables,
			Expected: fmt.Sprintf("%d live staged results", *assertion.Count),
			Actual:   fmt.Sprintf("%d: %v", len(live), live),
		}
	}
	return nil
}

// columnValues returns the scalar values of a plain column, or the bundle
// values of an attribute column.
func columnValues(col ir.ColumnValues) []ir.Value {
	if col.Kind != ir.ColumnAttribute {
		return col.Scalars
	}
	out := make([]ir.Value, len(col.Bundles))
	for i, b := range col.Bundles {
		out[i] = b.Value
	}
	return out
}

func formattedValues(col ir.ColumnValues) []string {
	vals := columnValues(col)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = ir.Format(v)
	}
	return out
}

func numeric(v ir.Value) (float64, bool) {
	switch x := v.(type) {
	case ir.Int:
		return float64(x), true
	case ir.Float:
		return float64(x), true
	}
	return 0, false
}

func describeRange(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("(%g, %g)", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("(%g, +inf)", *lo)
	default:
		return fmt.Sprintf("(-inf, %g)", *hi)
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRecordCount:
			err = assertRecordCount(result.Trace, assertion)
		case AssertColumnValues:
			err = assertColumnValues(result.Trace, assertion)
		case AssertValueRange:
			err = assertValueRange(result.Trace, assertion)
		case AssertSameRecords:
			err = assertSameRecords(result.Trace, assertion)
		case AssertStagedTables:
			err = assertStagedTables(result.LiveStaged, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
