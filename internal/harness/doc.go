// Package harness runs query scenarios end to end.
//
// A scenario is a YAML file naming a dataset, a list of query steps and
// assertions over their results:
//
//	name: warm_stars
//	description: a bracketed range keeps only matching teff values
//	dataset_file: ../datasets/sample.yaml
//	queries:
//	  - name: range
//	    query: "table,2,teff,dist,and|(|teff|>|4000|,and||teff|<|5000|)"
//	    expect:
//	      keys: [hd1, hd3]
//	assertions:
//	  - type: value_range
//	    step: range
//	    column: teff
//	    min: 4000
//	    max: 5000
//
// Each run loads the dataset into a fresh in-memory store and queries it
// through a real engine, so the trace reflects what the engine produced.
// Session ids are fixed per scenario, which keeps staged result names and
// golden traces reproducible.
//
// # Expect clauses
//
// A step without an expect clause must succeed. With one, error names the
// expected error code, and count, keys and staged are checked when set.
//
// # Assertions
//
//   - record_count: the step returned exactly count records
//   - column_values: the named column of the record with key holds values, in order
//   - value_range: every numeric value of column lies strictly between min and max
//   - same_records: every step in steps returned identical records
//   - staged_tables: count staged results were still live after the last step
//
// # Golden traces
//
// RunWithGolden compares a canonical JSON rendering of the trace with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
