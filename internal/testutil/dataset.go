package testutil

import "github.com/chw3k5/mypysql/internal/store"

// F64 returns a pointer to v.
func F64(v float64) *float64 { return &v }

// SampleDataset returns a small fact database:
//
//	hd1: spectra sp1 sp2 sp3; teff 4500 and 4700; dist 140; spt K2
//	hd2: spectrum sp4; teff 6100; dist 120
//	hd3: no spectra; teff 4200; dist 300
//	hd4: no spectra and no facts
//
// hd1 has three spectra and two teff rows so that joins fan out.
func SampleDataset() store.Dataset {
	return store.Dataset{
		Stars: []store.Star{
			{Handle: "hd1", PopName: "HD 1", SimbadName: "HD 1"},
			{Handle: "hd2", PopName: "HD 2"},
			{Handle: "hd3", PopName: "HD 3"},
			{Handle: "hd4", PopName: "HD 4"},
		},
		Spectra: []store.Spectrum{
			{Handle: "sp1", StarHandle: "hd1", SetType: "crires", PI: "Smith", MinWavelength: F64(4.6)},
			{Handle: "sp2", StarHandle: "hd1", SetType: "nirspec", PI: "Jones"},
			{Handle: "sp3", StarHandle: "hd1", SetType: "crires", PI: "Smith"},
			{Handle: "sp4", StarHandle: "hd2", SetType: "crires", PI: "Lee"},
		},
		FloatFacts: []store.FloatFact{
			{StarHandle: "hd1", Type: "teff", Value: F64(4500), ErrLow: F64(50), ErrHigh: F64(50), Ref: "paper-a", Units: "K"},
			{StarHandle: "hd1", Type: "teff", Value: F64(4700), Ref: "paper-b", Units: "K"},
			{StarHandle: "hd2", Type: "teff", Value: F64(6100), Units: "K"},
			{StarHandle: "hd3", Type: "teff", Value: F64(4200), Units: "K"},
			{StarHandle: "hd1", Type: "dist", Value: F64(140), Units: "pc"},
			{StarHandle: "hd2", Type: "dist", Value: F64(120), Units: "pc"},
			{StarHandle: "hd3", Type: "dist", Value: F64(300), Units: "pc"},
		},
		StringFacts: []store.StringFact{
			{StarHandle: "hd1", Type: "spt", Value: "K2", Ref: "paper-b"},
		},
	}
}
