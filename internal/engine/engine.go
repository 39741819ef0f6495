package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/chw3k5/mypysql/internal/catalog"
	"github.com/chw3k5/mypysql/internal/fold"
	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/parser"
	"github.com/chw3k5/mypysql/internal/planner"
)

// ErrClosed is returned by queries issued after Close.
var ErrClosed = errors.New("engine: closed")

// Executor runs rendered SQL against the backend.
// Implemented by *store.Store.
type Executor interface {
	// QueryRows runs a query and returns its column names and rows.
	QueryRows(ctx context.Context, query string, args []any) ([]string, [][]any, error)

	// Materialize stores the result of query under name.
	Materialize(ctx context.Context, name, query string, args []any) error

	// DropStaged removes a materialized result.
	DropStaged(ctx context.Context, name string) error
}

// Backend is an Executor that can also enumerate the parameter catalog.
type Backend interface {
	Executor
	catalog.Source
}

// Engine answers query strings: parse, plan, execute, fold.
//
// The engine holds one backend and one staging session. Calls are serialized
// by an internal mutex; a staged result lives on the backend connection, so
// overlapping queries on one engine would interleave their stages.
type Engine struct {
	mu     sync.Mutex
	exec   Executor
	cat    *catalog.Catalog
	build  *planner.Builder
	sess   *Session
	logger *slog.Logger
	closed bool

	keepStaging   bool
	stagingPrefix string
	idGen         SessionIDGenerator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithKeepStaging keeps staged results after their second stage has run.
// They are still dropped by Close.
func WithKeepStaging(keep bool) EngineOption {
	return func(e *Engine) {
		e.keepStaging = keep
	}
}

// WithStagingPrefix sets the first segment of staged result names.
func WithStagingPrefix(prefix string) EngineOption {
	return func(e *Engine) {
		e.stagingPrefix = prefix
	}
}

// WithSessionIDGenerator sets the generator of the session identifier.
// Default: UUIDv7Generator.
func WithSessionIDGenerator(g SessionIDGenerator) EngineOption {
	return func(e *Engine) {
		e.idGen = g
	}
}

// New creates an Engine over exec using the given catalog.
func New(exec Executor, cat *catalog.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		exec:          exec,
		cat:           cat,
		build:         planner.NewBuilder(cat),
		logger:        slog.Default(),
		stagingPrefix: DefaultStagingPrefix,
		idGen:         UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.sess = NewSession(e.idGen.Generate(), e.stagingPrefix)
	return e
}

// Load enumerates the catalog from backend and creates an Engine over it.
func Load(ctx context.Context, backend Backend, schema catalog.Schema, opts ...EngineOption) (*Engine, error) {
	cat, err := catalog.Load(ctx, backend, schema)
	if err != nil {
		return nil, err
	}
	return New(backend, cat, opts...), nil
}

// Catalog returns the engine's parameter catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// Session returns the engine's staging session.
func (e *Engine) Session() *Session {
	return e.sess
}

// Result is the folded answer to one query.
type Result struct {
	Shape ir.Shape `json:"shape" yaml:"shape"`

	// Key is the column records are keyed and sorted on.
	Key string `json:"key" yaml:"key"`

	// Columns names every record column, in order.
	Columns []string `json:"columns" yaml:"columns"`

	Records     []ir.Record `json:"records" yaml:"records"`
	Fingerprint string      `json:"fingerprint" yaml:"fingerprint"`
	Staged      bool        `json:"staged" yaml:"staged"`
}

// Query parses and executes a query string.
func (e *Engine) Query(ctx context.Context, query string) (*Result, error) {
	q, err := parser.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, q)
}

// Execute plans, runs and folds a parsed query.
//
// Every parse, catalog and planning error is returned before the backend is
// touched. Backend errors abort the call; no partial result is returned.
func (e *Engine) Execute(ctx context.Context, q ir.ParsedQuery) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	plan, err := e.build.Build(q)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query planned",
		"shape", plan.Shape,
		"key", plan.Key,
		"attributes", plan.Attributes,
		"conditions", len(q.Conditions()),
		"staged", plan.Staged(),
		"fingerprint", plan.Fingerprint,
	)

	rows, err := e.run(ctx, plan)
	if err != nil {
		return nil, err
	}

	records, err := fold.Fold(plan.Header, plan.Key, rows)
	if err != nil {
		return nil, fmt.Errorf("fold result: %w", err)
	}
	e.logger.Debug("query folded", "rows", len(rows), "records", len(records))

	return &Result{
		Shape:       plan.Shape,
		Key:         plan.Key,
		Columns:     resultColumns(plan),
		Records:     records,
		Fingerprint: plan.Fingerprint,
		Staged:      plan.Staged(),
	}, nil
}

// run executes the stages of plan and returns the final rows.
func (e *Engine) run(ctx context.Context, plan *planner.Plan) ([][]any, error) {
	if !plan.Staged() {
		stages, err := plan.Render("")
		if err != nil {
			return nil, fmt.Errorf("render plan: %w", err)
		}
		return e.queryRows(ctx, plan, stages[0])
	}

	name := e.sess.NextStageName(plan.Attributes)
	stages, err := plan.Render(name)
	if err != nil {
		return nil, fmt.Errorf("render plan: %w", err)
	}

	if err := e.exec.Materialize(ctx, name, stages[0].SQL, stages[0].Args); err != nil {
		return nil, backendError("materialize "+name, err)
	}
	e.sess.track(name)
	e.logger.Debug("stage materialized", "name", name, "session", e.sess.ID())

	if !e.keepStaging {
		defer e.drop(ctx, name)
	}
	return e.queryRows(ctx, plan, stages[1])
}

func (e *Engine) queryRows(ctx context.Context, plan *planner.Plan, stage planner.StageText) ([][]any, error) {
	cols, rows, err := e.exec.QueryRows(ctx, stage.SQL, stage.Args)
	if err != nil {
		return nil, backendError("query", err)
	}
	if len(cols) != len(plan.Header) {
		return nil, ir.NewBackendError("query",
			fmt.Errorf("backend returned %d columns, plan has %d", len(cols), len(plan.Header)))
	}
	return rows, nil
}

// drop removes a staged result and forgets it. Failures are logged.
func (e *Engine) drop(ctx context.Context, name string) error {
	if err := e.exec.DropStaged(ctx, name); err != nil {
		e.logger.Warn("failed to drop staged result", "name", name, "error", err)
		return backendError("drop "+name, err)
	}
	e.sess.release(name)
	e.logger.Debug("stage dropped", "name", name)
	return nil
}

// Close drops every staged result still live. Further queries fail with
// ErrClosed. Close does not close the backend.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	for _, name := range e.sess.Live() {
		if err := e.drop(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Explanation describes how a query would run, without running it.
type Explanation struct {
	Shape       ir.Shape            `json:"shape" yaml:"shape"`
	Key         string              `json:"key" yaml:"key"`
	Attributes  []string            `json:"attributes" yaml:"attributes"`
	Conditions  string              `json:"conditions" yaml:"conditions"`
	Header      []string            `json:"header" yaml:"header"`
	Columns     []string            `json:"columns" yaml:"columns"`
	Stages      []planner.StageText `json:"stages" yaml:"stages"`
	Fingerprint string              `json:"fingerprint" yaml:"fingerprint"`
}

// Explain parses and plans query and renders every stage. The staged source
// of a two-stage plan is shown as planner.FingerprintStageName.
func (e *Engine) Explain(query string) (*Explanation, error) {
	q, err := parser.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	plan, err := e.build.Build(q)
	if err != nil {
		return nil, err
	}
	stages, err := plan.Render(planner.FingerprintStageName)
	if err != nil {
		return nil, fmt.Errorf("render plan: %w", err)
	}
	return &Explanation{
		Shape:       plan.Shape,
		Key:         plan.Key,
		Attributes:  slices.Clone(q.Attributes()),
		Conditions:  ir.RenderConditions(q.Conditions()),
		Header:      plan.Header,
		Columns:     resultColumns(plan),
		Stages:      stages,
		Fingerprint: plan.Fingerprint,
	}, nil
}

// resultColumns lists the bridge columns followed by the attribute labels.
func resultColumns(plan *planner.Plan) []string {
	cols := slices.Clone(catalog.BridgeColumns)
	return append(cols, plan.Labels...)
}

// backendError wraps err as BACKEND_EXECUTION unless it already carries a code.
func backendError(op string, err error) error {
	if ir.CodeOf(err) != "" {
		return err
	}
	return ir.NewBackendError(op, err)
}
