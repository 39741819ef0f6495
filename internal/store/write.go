package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Star is one entity row.
type Star struct {
	Handle     string `yaml:"handle" json:"handle"`
	PopName    string `yaml:"pop_name,omitempty" json:"pop_name,omitempty"`
	SimbadName string `yaml:"simbad_name,omitempty" json:"simbad_name,omitempty"`
}

// Spectrum is one spectrum row. Zero-valued optional fields are stored as NULL.
type Spectrum struct {
	Handle        string   `yaml:"handle" json:"handle"`
	StarHandle    string   `yaml:"star" json:"star"`
	SetType       string   `yaml:"set_type,omitempty" json:"set_type,omitempty"`
	PI            string   `yaml:"pi,omitempty" json:"pi,omitempty"`
	Reference     string   `yaml:"reference,omitempty" json:"reference,omitempty"`
	MinWavelength *float64 `yaml:"min_wavelength_um,omitempty" json:"min_wavelength_um,omitempty"`
	MaxWavelength *float64 `yaml:"max_wavelength_um,omitempty" json:"max_wavelength_um,omitempty"`
	Resolution    *float64 `yaml:"resolution_um,omitempty" json:"resolution_um,omitempty"`
}

// FloatFact is one measurement in the float fact table.
type FloatFact struct {
	StarHandle string   `yaml:"star" json:"star"`
	Type       string   `yaml:"type" json:"type"`
	Value      *float64 `yaml:"value" json:"value"`
	ErrLow     *float64 `yaml:"error_low,omitempty" json:"error_low,omitempty"`
	ErrHigh    *float64 `yaml:"error_high,omitempty" json:"error_high,omitempty"`
	Ref        string   `yaml:"ref,omitempty" json:"ref,omitempty"`
	Units      string   `yaml:"units,omitempty" json:"units,omitempty"`
	Notes      string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// StringFact is one measurement in the string fact table.
type StringFact struct {
	StarHandle string `yaml:"star" json:"star"`
	Type       string `yaml:"type" json:"type"`
	Value      string `yaml:"value" json:"value"`
	Err        string `yaml:"error,omitempty" json:"error,omitempty"`
	Ref        string `yaml:"ref,omitempty" json:"ref,omitempty"`
	Units      string `yaml:"units,omitempty" json:"units,omitempty"`
	Notes      string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Dataset groups rows for a bulk insert.
type Dataset struct {
	Stars       []Star       `yaml:"stars" json:"stars"`
	Spectra     []Spectrum   `yaml:"spectra" json:"spectra"`
	FloatFacts  []FloatFact  `yaml:"float_facts" json:"float_facts"`
	StringFacts []StringFact `yaml:"string_facts" json:"string_facts"`
}

// WriteStar inserts a star.
// Uses ON CONFLICT DO NOTHING for idempotency - duplicate handles are silently ignored.
func (s *Store) WriteStar(ctx context.Context, star Star) error {
	return writeStar(ctx, s.db, star)
}

// WriteSpectrum inserts a spectrum. The referenced star must exist (foreign key constraint).
func (s *Store) WriteSpectrum(ctx context.Context, sp Spectrum) error {
	return writeSpectrum(ctx, s.db, sp)
}

// WriteFloatFact appends a float measurement.
func (s *Store) WriteFloatFact(ctx context.Context, f FloatFact) error {
	return writeFloatFact(ctx, s.db, f)
}

// WriteStringFact appends a string measurement.
func (s *Store) WriteStringFact(ctx context.Context, f StringFact) error {
	return writeStringFact(ctx, s.db, f)
}

// Load inserts a dataset in one transaction, stars first.
func (s *Store) Load(ctx context.Context, d Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer tx.Rollback()

	for _, star := range d.Stars {
		if err := writeStar(ctx, tx, star); err != nil {
			return err
		}
	}
	for _, sp := range d.Spectra {
		if err := writeSpectrum(ctx, tx, sp); err != nil {
			return err
		}
	}
	for _, f := range d.FloatFacts {
		if err := writeFloatFact(ctx, tx, f); err != nil {
			return err
		}
	}
	for _, f := range d.StringFacts {
		if err := writeStringFact(ctx, tx, f); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeStar(ctx context.Context, db execer, star Star) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO stars (spexodisks_handle, pop_name, preferred_simbad_name)
		VALUES (?, ?, ?)
		ON CONFLICT(spexodisks_handle) DO NOTHING
	`, star.Handle, nullString(star.PopName), nullString(star.SimbadName))
	if err != nil {
		return fmt.Errorf("write star %s: %w", star.Handle, err)
	}
	return nil
}

func writeSpectrum(ctx context.Context, db execer, sp Spectrum) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO spectra
		(spectrum_handle, spexodisks_handle, spectrum_set_type, spectrum_pi, spectrum_reference,
		 spectrum_min_wavelength_um, spectrum_max_wavelength_um, spectrum_resolution_um)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spectrum_handle) DO NOTHING
	`,
		sp.Handle,
		sp.StarHandle,
		nullString(sp.SetType),
		nullString(sp.PI),
		nullString(sp.Reference),
		nullFloat(sp.MinWavelength),
		nullFloat(sp.MaxWavelength),
		nullFloat(sp.Resolution),
	)
	if err != nil {
		return fmt.Errorf("write spectrum %s: %w", sp.Handle, err)
	}
	return nil
}

func writeFloatFact(ctx context.Context, db execer, f FloatFact) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO object_params_float
		(spexodisks_handle, float_param_type, float_value, float_error_low, float_error_high,
		 float_ref, float_units, float_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.StarHandle,
		f.Type,
		nullFloat(f.Value),
		nullFloat(f.ErrLow),
		nullFloat(f.ErrHigh),
		nullString(f.Ref),
		nullString(f.Units),
		nullString(f.Notes),
	)
	if err != nil {
		return fmt.Errorf("write float fact %s/%s: %w", f.StarHandle, f.Type, err)
	}
	return nil
}

func writeStringFact(ctx context.Context, db execer, f StringFact) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO object_params_str
		(spexodisks_handle, str_param_type, str_value, str_error, str_ref, str_units, str_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		f.StarHandle,
		f.Type,
		nullString(f.Value),
		nullString(f.Err),
		nullString(f.Ref),
		nullString(f.Units),
		nullString(f.Notes),
	)
	if err != nil {
		return fmt.Errorf("write string fact %s/%s: %w", f.StarHandle, f.Type, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
