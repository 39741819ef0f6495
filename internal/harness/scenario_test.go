package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const inlineScenario = `
name: inline
description: inline dataset
dataset:
  stars:
    - {handle: a}
  float_facts:
    - {star: a, type: teff, value: 5000}
queries:
  - name: q
    query: "table,1,teff"
    expect:
      count: 1
      staged: false
assertions:
  - type: record_count
    step: q
    count: 1
`

func TestLoadScenario_Inline(t *testing.T) {
	path := writeFile(t, t.TempDir(), "inline.yaml", inlineScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "inline", s.Name)
	require.Len(t, s.Dataset.Stars, 1)
	require.Len(t, s.Dataset.FloatFacts, 1)
	assert.Equal(t, 5000.0, *s.Dataset.FloatFacts[0].Value)

	require.Len(t, s.Queries, 1)
	require.NotNil(t, s.Queries[0].Expect)
	assert.Equal(t, 1, *s.Queries[0].Expect.Count)
	assert.False(t, *s.Queries[0].Expect.Staged)
	assert.Equal(t, AssertRecordCount, s.Assertions[0].Type)
}

func TestLoadScenario_DatasetFileMerged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0o755))
	writeFile(t, filepath.Join(dir, "data"), "base.yaml", `
stars:
  - {handle: base}
`)
	path := writeFile(t, dir, "s.yaml", `
name: merged
description: file plus inline rows
dataset_file: data/base.yaml
dataset:
  stars:
    - {handle: extra}
queries:
  - {name: q, query: "table,1,teff"}
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, s.Dataset.Stars, 2)
	assert.Equal(t, "base", s.Dataset.Stars[0].Handle)
	assert.Equal(t, "extra", s.Dataset.Stars[1].Handle)
	assert.Equal(t, filepath.Join(dir, "data", "base.yaml"), s.DatasetFile)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "base.yaml", "stars:\n  - {handle: x}\n")
	path := writeFile(t, t.TempDir(), "s.yaml", `
name: based
description: dataset resolved against the base path
dataset_file: base.yaml
queries:
  - {name: q, query: "table,1,teff"}
`)

	s, err := LoadScenarioWithBasePath(path, dataDir)
	require.NoError(t, err)
	require.Len(t, s.Dataset.Stars, 1)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "description: d\nqueries: [{name: q, query: x}]\n", "name is required"},
		{"missing description", "name: n\nqueries: [{name: q, query: x}]\n", "description is required"},
		{"no queries", "name: n\ndescription: d\n", "queries list is required"},
		{"unnamed query", "name: n\ndescription: d\nqueries: [{query: x}]\n", "queries[0]: name is required"},
		{"empty query", "name: n\ndescription: d\nqueries: [{name: q}]\n", "queries[0]: query is required"},
		{"duplicate step", "name: n\ndescription: d\nqueries: [{name: q, query: x}, {name: q, query: y}]\n", "duplicate name"},
		{"unknown field", "name: n\ndescription: d\nquery: x\n", "field query not found"},
		{"unknown dataset field", "name: n\ndescription: d\ndataset: {planets: []}\nqueries: [{name: q, query: x}]\n", "field planets not found"},
		{"missing dataset file", "name: n\ndescription: d\ndataset_file: nope.yaml\nqueries: [{name: q, query: x}]\n", "dataset file not found"},
		{"unknown assertion", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: vibes}]\n", `unknown assertion type "vibes"`},
		{"assertion unknown step", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: record_count, step: r, count: 1}]\n", `unknown step "r"`},
		{"record_count without count", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: record_count, step: q}]\n", "non-negative count is required"},
		{"column_values without key", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: column_values, step: q, column: teff}]\n", "key and column are required"},
		{"value_range without bounds", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: value_range, step: q, column: teff}]\n", "min or max is required"},
		{"same_records with one step", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: same_records, steps: [q]}]\n", "at least two steps"},
		{"staged_tables without count", "name: n\ndescription: d\nqueries: [{name: q, query: x}]\nassertions: [{type: staged_tables}]\n", "non-negative count is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "s.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset("../../testdata/datasets/sample.yaml")
	require.NoError(t, err)
	assert.Len(t, ds.Stars, 4)
	assert.Len(t, ds.Spectra, 4)
	assert.Len(t, ds.FloatFacts, 7)
	assert.Len(t, ds.StringFacts, 1)
	assert.Equal(t, "paper-a", ds.FloatFacts[0].Ref)
	assert.Equal(t, 4.6, *ds.Spectra[0].MinWavelength)
}
