package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chw3k5/mypysql/internal/store"
)

// Scenario defines an end-to-end query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// DatasetFile is a YAML dataset loaded before Dataset.
	// Relative paths are resolved against the scenario's base path.
	DatasetFile string `yaml:"dataset_file,omitempty"`

	// Dataset holds inline rows, appended to those of DatasetFile.
	Dataset store.Dataset `yaml:"dataset,omitempty"`

	// Driver selects the SQLite driver; empty means the default.
	Driver string `yaml:"driver,omitempty"`

	// KeepStaging keeps staged results until the run ends.
	KeepStaging bool `yaml:"keep_staging,omitempty"`

	// SessionID fixes the engine session id.
	// If empty, defaults to testutil.DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Queries are run in order against one engine.
	Queries []QueryStep `yaml:"queries"`

	// Assertions validate the results after every query has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// QueryStep is one query of a scenario.
type QueryStep struct {
	// Name identifies the step in assertions and the trace.
	Name string `yaml:"name"`

	// Query is the query string.
	Query string `yaml:"query"`

	// Expect specifies the expected outcome.
	// If nil, the query must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error code, e.g. "UNKNOWN_ATTRIBUTE".
	// Empty means the query must succeed.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of records.
	Count *int `yaml:"count,omitempty"`

	// Keys are the expected record keys, in order.
	Keys []string `yaml:"keys,omitempty"`

	// Staged is whether the query ran in two stages.
	Staged *bool `yaml:"staged,omitempty"`
}

// Assertion validates results after the run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "record_count": step returned Count records
	// - "column_values": Column of the record with Key holds Values
	// - "value_range": every numeric value of Column is within (Min, Max)
	// - "same_records": every step in Steps returned identical records
	// - "staged_tables": Count staged results were live after the last step
	Type string `yaml:"type"`

	// Step names the query step (record_count, column_values, value_range).
	Step string `yaml:"step,omitempty"`

	// Steps names the compared steps (same_records).
	Steps []string `yaml:"steps,omitempty"`

	// Key is the formatted record key (column_values).
	Key string `yaml:"key,omitempty"`

	// Column is the output column name (column_values, value_range).
	Column string `yaml:"column,omitempty"`

	// Values are the expected formatted values (column_values).
	Values []string `yaml:"values,omitempty"`

	// Min and Max are exclusive bounds (value_range). Either may be omitted.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Count is the expected count (record_count, staged_tables).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount  = "record_count"
	AssertColumnValues = "column_values"
	AssertValueRange   = "value_range"
	AssertSameRecords  = "same_records"
	AssertStagedTables = "staged_tables"
)

// LoadScenario reads and parses a scenario YAML file, resolving the dataset
// file relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the dataset file relative to basePath.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := decodeStrict(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.DatasetFile != "" && !filepath.IsAbs(scenario.DatasetFile) && basePath != "" {
		scenario.DatasetFile = filepath.Join(basePath, scenario.DatasetFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.DatasetFile != "" {
		base, err := LoadDataset(scenario.DatasetFile)
		if err != nil {
			return nil, err
		}
		scenario.Dataset = mergeDatasets(base, scenario.Dataset)
	}

	return &scenario, nil
}

// LoadDataset reads a YAML dataset file.
func LoadDataset(path string) (store.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Dataset{}, fmt.Errorf("failed to read dataset file: %w", err)
	}
	var ds store.Dataset
	if err := decodeStrict(data, &ds); err != nil {
		return store.Dataset{}, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return ds, nil
}

// decodeStrict decodes YAML, rejecting unknown fields.
func decodeStrict(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(v)
}

func mergeDatasets(a, b store.Dataset) store.Dataset {
	return store.Dataset{
		Stars:       append(a.Stars, b.Stars...),
		Spectra:     append(a.Spectra, b.Spectra...),
		FloatFacts:  append(a.FloatFacts, b.FloatFacts...),
		StringFacts: append(a.StringFacts, b.StringFacts...),
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	if s.DatasetFile != "" {
		if _, err := os.Stat(s.DatasetFile); os.IsNotExist(err) {
			return fmt.Errorf("dataset file not found: %s", s.DatasetFile)
		}
	}

	steps := make(map[string]bool, len(s.Queries))
	for i, step := range s.Queries {
		if step.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if steps[step.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, step.Name)
		}
		steps[step.Name] = true
		if step.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if e := step.Expect; e != nil && e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("queries[%d].expect: count must be non-negative", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, steps); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	requireStep := func() error {
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for %s", index, a.Type)
		}
		if !steps[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
		}
		return nil
	}
	requireCount := func() error {
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertRecordCount:
		if err := requireStep(); err != nil {
			return err
		}
		return requireCount()
	case AssertColumnValues:
		if err := requireStep(); err != nil {
			return err
		}
		if a.Key == "" || a.Column == "" {
			return fmt.Errorf("assertions[%d]: key and column are required for column_values", index)
		}
	case AssertValueRange:
		if err := requireStep(); err != nil {
			return err
		}
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for value_range", index)
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for value_range", index)
		}
	case AssertSameRecords:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: at least two steps are required for same_records", index)
		}
		for _, s := range a.Steps {
			if !steps[s] {
				return fmt.Errorf("assertions[%d]: unknown step %q", index, s)
			}
		}
	case AssertStagedTables:
		return requireCount()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
