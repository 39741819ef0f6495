package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chw3k5/mypysql/internal/store"
)

func f64(v float64) *float64 { return &v }

// seedDatabase writes a small fact database and returns its path.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spexodisks.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	err = st.Load(context.Background(), store.Dataset{
		Stars: []store.Star{
			{Handle: "hd1", PopName: "HD 1", SimbadName: "HD 1"},
			{Handle: "hd2", PopName: "HD 2"},
			{Handle: "hd3", PopName: "HD 3"},
		},
		Spectra: []store.Spectrum{
			{Handle: "sp1", StarHandle: "hd1", PI: "Smith"},
			{Handle: "sp2", StarHandle: "hd1", PI: "Jones"},
			{Handle: "sp3", StarHandle: "hd2", PI: "Smith"},
		},
		FloatFacts: []store.FloatFact{
			{StarHandle: "hd1", Type: "teff", Value: f64(4500), ErrLow: f64(50), ErrHigh: f64(60), Ref: "paper-a", Units: "K"},
			{StarHandle: "hd2", Type: "teff", Value: f64(6100), Units: "K"},
			{StarHandle: "hd1", Type: "dist", Value: f64(140), Units: "pc"},
		},
		StringFacts: []store.StringFact{
			{StarHandle: "hd1", Type: "spt", Value: "K2"},
		},
	})
	require.NoError(t, err)
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestQueryCommand_Text(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "query", "--db", db, "table,1,teff")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header plus one line per star")
	assert.Equal(t, "spectrum_handle\tspexodisks_handle\tpop_name\tpreferred_simbad_name\tteff", lines[0])
	assert.Equal(t, "sp1; sp2\thd1\tHD 1\tHD 1\t4500 (-50/+60) K [paper-a]", lines[1])
	assert.Equal(t, "sp3\thd2\tHD 2\t\t6100 K", lines[2])
	assert.Equal(t, "\thd3\tHD 3\t\t", lines[3])
}

func TestQueryCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "query", "--db", db, "table,1,dist,and||teff|>|5000|")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "table", data["shape"])
	assert.Equal(t, "spexodisks_handle", data["key"])
	assert.Equal(t, true, data["staged"])

	records, ok := data["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "hd2", records[0].([]any)[0])
}

func TestQueryCommand_PureDriver(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "query", "--db", db, "--driver", "sqlite", "table,1,spt")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Len(t, data["records"], 3)
}

func TestQueryCommand_QueryErrors(t *testing.T) {
	db := seedDatabase(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"unknown attribute", "table,1,colour", "UNKNOWN_ATTRIBUTE"},
		{"malformed condition", "table,1,teff,and|teff|>|1", "MALFORMED_CONDITION"},
		{"unsupported shape", "histogram,teff", "UNSUPPORTED_QUERY_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "--format", "json", "query", "--db", db, tt.query)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestQueryCommand_DatabaseError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")

	out, _, err := execute(t, "--format", "json", "query", "--db", missing, "table,1,teff")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeDatabase, decodeResponse(t, out).Error.Code)
}

func TestQueryCommand_XLSX(t *testing.T) {
	db := seedDatabase(t)
	book := filepath.Join(t.TempDir(), "stars.xlsx")

	_, _, err := execute(t, "query", "--db", db, "--xlsx", book, "table,2,teff,spt")
	require.NoError(t, err)

	f, err := excelize.OpenFile(book)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(recordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"spectrum_handle", "spexodisks_handle", "pop_name", "preferred_simbad_name", "teff", "spt"}, rows[0])
	assert.Equal(t, "4500 (-50/+60) K [paper-a]", rows[1][4])
	assert.Equal(t, "K2", rows[1][5])
	assert.Equal(t, "6100 K", rows[2][4])
}

func TestQueryCommand_Config(t *testing.T) {
	db := seedDatabase(t)
	cfgPath := filepath.Join(t.TempDir(), "spexq.cue")
	src := "database: path: \"" + filepath.ToSlash(db) + "\"\nengine: keep_staging: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(src), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "--format", "json", "query", "table,1,teff")
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeResponse(t, out).Status)

	// Staged results kept for the session are still dropped on exit.
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	staged, err := st.StagedTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestQueryCommand_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "spexq.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`database: driver: "postgres"`), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "--format", "json", "query", "table,1,teff")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeConfig, decodeResponse(t, out).Error.Code)
}

func TestExplainCommand(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "explain", "--db", db, "table,1,dist,and||teff|>|5000|")
	require.NoError(t, err)

	assert.Contains(t, out, "Shape:       table")
	assert.Contains(t, out, "Key:         spexodisks_handle")
	assert.Contains(t, out, "Conditions:  teff > 5000")
	assert.Contains(t, out, "Stage 1:")
	assert.Contains(t, out, "Stage 2:")
	assert.Contains(t, out, "Stage 2 (parameterized):")
	assert.Contains(t, out, "Args: [")
	assert.Contains(t, out, "staged")
	assert.Contains(t, out, "Fingerprint: ")
}

func TestExplainCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "explain", "--db", db, "plot,teff,dist")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, "plot", data["shape"])
	assert.Equal(t, []any{"teff", "dist"}, data["attributes"])
	assert.Len(t, data["stages"], 1)
}

func TestCatalogCommand(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "catalog", "--db", db)
	require.NoError(t, err)

	entries, ok := decodeResponse(t, out).Data.([]any)
	require.True(t, ok)

	byName := map[string]map[string]any{}
	for _, e := range entries {
		entry := e.(map[string]any)
		byName[entry["attribute"].(string)] = entry
	}
	assert.Equal(t, "object-float-facts", byName["teff"]["location"])
	assert.Equal(t, "fact", byName["teff"]["kind"])
	assert.Equal(t, "object-string-facts", byName["spt"]["location"])
	assert.Equal(t, "spectrum-facts", byName["spectrum_pi"]["location"])
}

func TestCatalogCommand_Location(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "catalog", "--db", db, "--location", "object-float-facts")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "attribute\tlocation\tkind\tnote", lines[0])
	assert.Contains(t, out, "teff\tobject-float-facts\tfact\t")
	assert.NotContains(t, out, "spectrum_pi")
}
