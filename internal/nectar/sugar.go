// Package nectar converts nectar volume and concentration into calories per
// flower and builds the per-species reward table.
package nectar

import (
	"math"

	"github.com/sells-group/nectar-cli/internal/model"
)

// sugarGramsPerLiter maps a rounded concentration (° Brix, w/w) to grams of
// sucrose per liter of solution (Kearns & Inouye 1993, Table 5-2).
var sugarGramsPerLiter = map[float64]float64{
	0: 0, 0.5: 5.0, 1: 10.0, 1.5: 15.1, 2: 20.1, 2.5: 25.2,
	3: 30.3, 3.5: 35.4, 4: 40.6, 4.5: 45.7, 5: 50.9,
	5.5: 56.1, 6: 61.3, 6.5: 66.6, 7: 71.8, 7.5: 77.1,
	8: 82.4, 8.5: 87.7, 9: 93.1, 9.5: 98.4, 10: 103.8,
	11: 114.7, 12: 125.6, 13: 136.6, 14: 147.7, 15: 158.9,
	16: 170.2, 17: 181.5, 18: 193.0, 19: 204.6, 20: 216.2,
	22: 239.8, 24: 263.8, 26: 288.1, 28: 312.9, 30: 338.1,
	32: 363.7, 34: 389.8, 36: 416.2, 38: 443.2, 40: 470.6,
	42: 498.5, 44: 526.8, 46: 555.6, 48: 584.9, 50: 614.8,
	52: 645.1, 54: 676.0, 56: 707.4, 58: 739.4, 60: 771.9,
	62: 804.9, 64: 838.6, 66: 872.8, 68: 907.6, 70: 943.0,
}

// DefaultKcalPerGram is the energy content of sucrose.
const DefaultKcalPerGram = 3.94

// RoundBrix rounds a concentration to the table's step: 0.5 up to 10, 1 up
// to 20, 2 above. Halves round to even.
func RoundBrix(brix float64) float64 {
	var step float64
	switch {
	case brix <= 10:
		step = 0.5
	case brix <= 20:
		step = 1
	default:
		step = 2
	}
	return math.RoundToEven(brix/step) * step
}

// SugarGramsPerLiter returns the table value for a concentration, undefined
// outside the table.
func SugarGramsPerLiter(brix float64) model.Num {
	g, ok := sugarGramsPerLiter[RoundBrix(brix)]
	if !ok {
		return model.NA
	}
	return model.Some(g)
}

// CaloriesPerFlower converts one flower's nectar to small calories:
// g/L × L × kcal/g × 1000.
func CaloriesPerFlower(volumeUL, brix model.Num, kcalPerGram float64) model.Num {
	if !volumeUL.Valid || !brix.Valid {
		return model.NA
	}
	sugar := SugarGramsPerLiter(brix.V)
	if !sugar.Valid {
		return model.NA
	}
	return model.Some(sugar.V * (volumeUL.V / 1e6) * kcalPerGram * 1000)
}
