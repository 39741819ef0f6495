package planner

import (
	"fmt"

	"github.com/chw3k5/mypysql/internal/ir"
	"github.com/chw3k5/mypysql/internal/queryir"
	"github.com/chw3k5/mypysql/internal/querysql"
)

// FingerprintStageName stands in for the staged view name when a plan is
// rendered for fingerprinting, so that identical plans hash identically
// across sessions.
const FingerprintStageName = "staged"

// Plan is the compiled form of one parsed query.
type Plan struct {
	Shape ir.Shape

	// Key is the primary-key output column the result is folded on.
	Key string

	// Header labels every output column, in select order. Plain columns use
	// their column name; attribute clusters use <label><suffix>.
	Header []string

	// Labels are the attribute column labels in caller order.
	Labels []string

	// Attributes are the requested attribute names, sorted.
	Attributes []string

	// Stage1 joins the requested attributes. When Stage2 is nil it also
	// carries every condition and is the only query executed.
	Stage1 *queryir.Select

	// Stage2 reads the materialized Stage1 result and applies the condition
	// chain. Nil for single-stage plans.
	Stage2 *queryir.Select

	// Fingerprint identifies the plan by content.
	Fingerprint string
}

// Staged reports whether the plan materializes an intermediate result.
func (p *Plan) Staged() bool {
	return p.Stage2 != nil
}

// StageText is one rendered stage.
type StageText struct {
	SQL    string `json:"sql" yaml:"sql"`
	Args   []any  `json:"args" yaml:"args"`
	Inline string `json:"inline" yaml:"inline"`
}

// Render compiles every stage. stageName is substituted for the staged
// source of the second stage and is ignored for single-stage plans.
func (p *Plan) Render(stageName string) ([]StageText, error) {
	stages := []*queryir.Select{p.Stage1}
	if p.Stage2 != nil {
		stages = append(stages, p.Stage2)
	}

	out := make([]StageText, 0, len(stages))
	for i, sel := range stages {
		param := &querysql.SQLCompiler{StageName: stageName, Mode: querysql.Parameterized}
		sql, args, err := param.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("render stage %d: %w", i+1, err)
		}
		inline := &querysql.SQLCompiler{StageName: stageName, Mode: querysql.Inline}
		text, _, err := inline.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("render stage %d: %w", i+1, err)
		}
		out = append(out, StageText{SQL: sql, Args: args, Inline: text})
	}
	return out, nil
}

// fingerprint hashes the shape, key, header and every parameterized stage.
func (p *Plan) fingerprint() (string, error) {
	stages, err := p.Render(FingerprintStageName)
	if err != nil {
		return "", err
	}
	stageList := make([]any, len(stages))
	for i, s := range stages {
		args := make([]any, len(s.Args))
		copy(args, s.Args)
		stageList[i] = map[string]any{"sql": s.SQL, "args": args}
	}
	return ir.PlanFingerprint(map[string]any{
		"shape":  string(p.Shape),
		"key":    p.Key,
		"header": p.Header,
		"stages": stageList,
	})
}
