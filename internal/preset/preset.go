// Package preset holds the per-age parameter bundles that drive every
// processing stage. Values are drawn from infant psychophysics literature
// (acuity and contrast sensitivity development over the first months);
// they parameterize the model, they do not reproduce clinical curves.
package preset

import "fmt"

// ConeSensitivity scales the long/medium/short wavelength cone responses,
// each in [0,1] where 1 is adult-like.
type ConeSensitivity struct {
	L float64
	M float64
	S float64
}

// Preset is an immutable parameter bundle for one developmental stage.
type Preset struct {
	Label string

	// Spatial vision.
	SpatialCutoffCPD        float64 // highest resolvable spatial frequency, cycles/degree
	PeakSensitivityCPD      float64 // frequency of peak contrast sensitivity
	ContrastSensitivityPeak float64 // unitless gain at the peak
	ContrastSlope           float64 // fraction of full contrast retained, [0,1]

	// Temporal vision.
	TemporalIntegrationMs float64

	// Color vision.
	Cones ConeSensitivity

	// Optics.
	PupilDiameterMm    float64
	ScatteringFactor   float64 // intraocular scatter, [0,1]
	AccommodationRange float64 // diopters of usable focus range

	// Visual field.
	CentralFieldRadiusDeg float64
	PeripheralSuppression float64 // [0,1]

	// Neural maturation.
	LateralInhibition  float64 // [0,1], center-surround gain
	PhotoreceptorNoise float64 // [0,1]

	Description string
}

// Table maps an integer age stage (months) to its preset.
type Table map[int]Preset

// Ages returns the table keys in ascending order. Small fixed tables only.
func (t Table) Ages() []int {
	out := make([]int, 0, len(t))
	for a := 1; len(out) < len(t); a++ {
		if _, ok := t[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Get fails fast on unknown ages: presets materially change every stage's
// math, so silently defaulting would mislabel the simulation.
func (t Table) Get(age int) (Preset, error) {
	p, ok := t[age]
	if !ok {
		return Preset{}, fmt.Errorf("no preset for age stage %d", age)
	}
	return p, nil
}

// Default returns the standard 1-3 month table.
func Default() Table {
	return Table{
		1: {
			Label:                   "1 month",
			SpatialCutoffCPD:        2.0,
			PeakSensitivityCPD:      0.5,
			ContrastSensitivityPeak: 8,
			ContrastSlope:           0.25,
			TemporalIntegrationMs:   350,
			Cones:                   ConeSensitivity{L: 0.55, M: 0.40, S: 0.15},
			PupilDiameterMm:         3.4,
			ScatteringFactor:        0.55,
			AccommodationRange:      1.0,
			CentralFieldRadiusDeg:   10,
			PeripheralSuppression:   0.75,
			LateralInhibition:       0.20,
			PhotoreceptorNoise:      0.35,
			Description:             "Severely blurred, low-contrast world; red-biased color with little chromatic discrimination; narrow useful field.",
		},
		2: {
			Label:                   "2 months",
			SpatialCutoffCPD:        3.2,
			PeakSensitivityCPD:      0.8,
			ContrastSensitivityPeak: 18,
			ContrastSlope:           0.40,
			TemporalIntegrationMs:   240,
			Cones:                   ConeSensitivity{L: 0.70, M: 0.60, S: 0.30},
			PupilDiameterMm:         4.0,
			ScatteringFactor:        0.35,
			AccommodationRange:      2.0,
			CentralFieldRadiusDeg:   20,
			PeripheralSuppression:   0.55,
			LateralInhibition:       0.45,
			PhotoreceptorNoise:      0.22,
			Description:             "Red/green discrimination emerging; blue response still immature; field widening.",
		},
		3: {
			Label:                   "3 months",
			SpatialCutoffCPD:        4.8,
			PeakSensitivityCPD:      1.2,
			ContrastSensitivityPeak: 35,
			ContrastSlope:           0.55,
			TemporalIntegrationMs:   160,
			Cones:                   ConeSensitivity{L: 0.85, M: 0.80, S: 0.55},
			PupilDiameterMm:         4.5,
			ScatteringFactor:        0.20,
			AccommodationRange:      4.0,
			CentralFieldRadiusDeg:   30,
			PeripheralSuppression:   0.35,
			LateralInhibition:       0.65,
			PhotoreceptorNoise:      0.12,
			Description:             "Trichromatic color beginning; accommodation and tracking improving; edges noticeably enhanced by maturing inhibition.",
		},
	}
}
