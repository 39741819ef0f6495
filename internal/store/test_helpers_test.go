package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func f64(v float64) *float64 { return &v }

// seedTestData loads two stars, three spectra and a few facts.
func seedTestData(t *testing.T, s *Store) {
	t.Helper()
	err := s.Load(context.Background(), Dataset{
		Stars: []Star{
			{Handle: "hd1", PopName: "HD 1", SimbadName: "HD 1"},
			{Handle: "hd2", PopName: "HD 2"},
		},
		Spectra: []Spectrum{
			{Handle: "sp1", StarHandle: "hd1", SetType: "crires", PI: "Smith", MinWavelength: f64(4.6)},
			{Handle: "sp2", StarHandle: "hd1", SetType: "nirspec", PI: "Jones"},
			{Handle: "sp3", StarHandle: "hd2", SetType: "crires", PI: "Smith"},
		},
		FloatFacts: []FloatFact{
			{StarHandle: "hd1", Type: "teff", Value: f64(4500), ErrLow: f64(50), ErrHigh: f64(60), Ref: "paper-a", Units: "K"},
			{StarHandle: "hd1", Type: "dist", Value: f64(140), Units: "pc"},
			{StarHandle: "hd2", Type: "teff", Value: f64(6100), Units: "K"},
		},
		StringFacts: []StringFact{
			{StarHandle: "hd1", Type: "spt", Value: "K2", Ref: "paper-b"},
		},
	})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
}
