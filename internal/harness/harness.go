package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/engine"
	"github.com/chw3k5/mypysql/internal/store"
	"github.com/chw3k5/mypysql/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs query steps against one engine with a fixed session id.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *engine.Clock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// The returned error reports harness failures (the dataset could not be
// loaded, the catalog could not be read); failed expectations are recorded
// in the result instead.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	var opts []store.Option
	if scenario.Driver != "" {
		opts = append(opts, store.WithDriver(scenario.Driver))
	}
	st, err := store.Open(":memory:", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Load(ctx, scenario.Dataset); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.Load(ctx, st, catalog.DefaultSchema(),
		engine.WithLogger(logger),
		engine.WithKeepStaging(scenario.KeepStaging),
		engine.WithSessionIDGenerator(testutil.NewFixedSessionGenerator(scenario.SessionID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer eng.Close(ctx)

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  engine.NewClock(),
		logger: logger,
	}

	result := NewResult()
	h.executeQueries(ctx, scenario.Queries, result)

	live, err := st.StagedTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged results: %w", err)
	}
	result.LiveStaged = live

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeQueries runs every step and checks its expect clause.
func (h *Harness) executeQueries(ctx context.Context, steps []QueryStep, result *Result) {
	for _, step := range steps {
		seq := h.clock.Next()

		res, err := h.engine.Query(ctx, step.Query)
		var event *TraceEvent
		if err != nil {
			h.logger.Debug("step failed", "step", step.Name, "error", err)
			event = result.AddErrorTrace(step.Name, step.Query, seq, err)
		} else {
			h.logger.Debug("step succeeded", "step", step.Name, "records", len(res.Records))
			event = result.AddResultTrace(step.Name, step.Query, seq, res)
		}

		for _, msg := range checkExpect(step, event) {
			result.AddError(msg)
		}
	}
}

// checkExpect compares a step's event with its expect clause.
func checkExpect(step QueryStep, event *TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("step %q: ", step.Name)+fmt.Sprintf(format, args...))
	}

	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	if expect.Error != "" {
		switch {
		case event.Type != EventError:
			fail("expected error %s, got %d records", expect.Error, len(event.Records))
		case event.ErrorCode != expect.Error:
			fail("expected error %s, got %s: %s", expect.Error, orNone(event.ErrorCode), event.Message)
		}
		return errs
	}

	if event.Type == EventError {
		fail("unexpected error %s: %s", orNone(event.ErrorCode), event.Message)
		return errs
	}

	if expect.Count != nil && len(event.Records) != *expect.Count {
		fail("expected %d records, got %d", *expect.Count, len(event.Records))
	}
	if expect.Keys != nil {
		if keys := event.RecordKeys(); !slices.Equal(keys, expect.Keys) {
			fail("expected keys %v, got %v", expect.Keys, keys)
		}
	}
	if expect.Staged != nil && event.Staged != *expect.Staged {
		fail("expected staged=%t, got %t", *expect.Staged, event.Staged)
	}
	return errs
}

func orNone(code string) string {
	if code == "" {
		return "(no code)"
	}
	return code
}
