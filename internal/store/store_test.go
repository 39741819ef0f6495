package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	seedTestData(t, s1)
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.db.QueryRow("SELECT COUNT(*) FROM stars").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 2 {
		t.Errorf("stars = %d, want 2", count)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"stars", "spectra", "object_params_float", "object_params_str"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_PureDriver(t *testing.T) {
	s := createTestStore(t, WithDriver(DriverPure))
	if s.Driver() != DriverPure {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverPure)
	}
	seedTestData(t, s)

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM handles").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 3 {
		t.Errorf("handles = %d, want 3", count)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "test.db"), WithDriver("postgres"))
	if err == nil {
		t.Error("expected error for unknown driver, got nil")
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	for _, driver := range []string{DriverCGO, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			s := createTestStore(t, WithDriver(driver))

			tests := []struct {
				name, want string
			}{
				{"journal_mode", "wal"},
				{"synchronous", "1"}, // NORMAL
				{"busy_timeout", "5000"},
				{"foreign_keys", "1"},
			}
			for _, tt := range tests {
				if err := s.verifyPragma(tt.name, tt.want); err != nil {
					t.Error(err)
				}
			}
		})
	}
}

// Schema tests

func TestSchema_Tables(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"stars":   {"spexodisks_handle", "pop_name", "preferred_simbad_name"},
		"spectra": {"spectrum_handle", "spexodisks_handle", "spectrum_pi", "spectrum_reference", "spectrum_min_wavelength_um"},
		"object_params_float": {
			"float_index_params", "spexodisks_handle", "float_param_type", "float_value",
			"float_error_low", "float_error_high", "float_ref", "float_units", "float_notes",
		},
		"object_params_str": {
			"str_index_params", "spexodisks_handle", "str_param_type", "str_value",
			"str_error", "str_ref", "str_units", "str_notes",
		},
		"handles": {"spectrum_handle", "spexodisks_handle", "pop_name", "preferred_simbad_name"},
	}

	for table, expected := range tests {
		columns := getTableColumns(t, s.db, table)
		for _, col := range expected {
			if !slices.Contains(columns, col) {
				t.Errorf("%s missing column %q", table, col)
			}
		}
	}
}

func TestSchema_HandlesBridge(t *testing.T) {
	s := createTestStore(t)
	seedTestData(t, s)
	if err := s.WriteStar(context.Background(), Star{Handle: "hd3"}); err != nil {
		t.Fatalf("WriteStar() failed: %v", err)
	}

	// hd1 has two spectra, hd2 one, hd3 none but still appears.
	rows, err := s.db.Query(`SELECT spexodisks_handle, COUNT(*), COUNT(spectrum_handle)
		FROM handles GROUP BY spexodisks_handle ORDER BY spexodisks_handle`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	type counts struct{ rows, spectra int }
	got := map[string]counts{}
	for rows.Next() {
		var handle string
		var c counts
		if err := rows.Scan(&handle, &c.rows, &c.spectra); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got[handle] = c
	}

	want := map[string]counts{"hd1": {2, 2}, "hd2": {1, 1}, "hd3": {1, 0}}
	for handle, w := range want {
		if got[handle] != w {
			t.Errorf("%s: got %+v, want %+v", handle, got[handle], w)
		}
	}
}

func TestSchema_ForeignKeyFactToStar(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteFloatFact(context.Background(), FloatFact{StarHandle: "missing", Type: "teff", Value: f64(1)})
	if err == nil {
		t.Error("expected foreign key violation, got nil")
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "object_params_float")
	if !slices.Contains(indexes, "idx_float_handle_type") {
		t.Errorf("expected idx_float_handle_type after migration, got indexes: %v", indexes)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
