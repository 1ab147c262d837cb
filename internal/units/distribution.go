package units

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/nectar-cli/internal/model"
)

// Match is the known unit whose log-count distribution is closest to a
// species' unknown-unit rows.
type Match struct {
	Unit     model.CountUnit
	Distance float64
}

// MatchOptions gates the distribution comparison.
type MatchOptions struct {
	MinKnownRows   int
	MinUnknownRows int
	MaxDistance    float64
}

// logCounts holds the sorted log(count) samples for known and unknown rows
// of one species.
type logCounts struct {
	known   map[model.CountUnit][]float64
	unknown []float64
}

// DistributionMatches compares, per species, log(count) of rows without a
// recorded unit against each recorded unit using the two-sample
// Kolmogorov-Smirnov distance. Only rows with a positive count are samples;
// a known unit needs more than MinKnownRows samples and the unknown rows
// more than MinUnknownRows.
func DistributionMatches(obs []model.Observation, opts MatchOptions) map[string]Match {
	bySpecies := make(map[string]*logCounts)
	for _, o := range obs {
		lc := bySpecies[o.SpeciesCode]
		if lc == nil {
			lc = &logCounts{known: make(map[model.CountUnit][]float64)}
			bySpecies[o.SpeciesCode] = lc
		}
		if !o.Count.Valid || o.Count.V <= 0 {
			continue
		}
		v := math.Log(o.Count.V)
		if o.RawUnit != model.UnitNone {
			lc.known[o.RawUnit] = append(lc.known[o.RawUnit], v)
		} else {
			lc.unknown = append(lc.unknown, v)
		}
	}

	out := make(map[string]Match)
	for code, lc := range bySpecies {
		if len(lc.unknown) == 0 || len(lc.unknown) <= opts.MinUnknownRows {
			continue
		}
		sort.Float64s(lc.unknown)

		best := Match{Distance: math.Inf(1)}
		for _, unit := range model.CountUnits {
			sample := lc.known[unit]
			if len(sample) == 0 || len(sample) <= opts.MinKnownRows {
				continue
			}
			sort.Float64s(sample)
			d := stat.KolmogorovSmirnov(sample, nil, lc.unknown, nil)
			if d < best.Distance {
				best = Match{Unit: unit, Distance: d}
			}
		}
		if best.Unit != model.UnitNone && best.Distance <= opts.MaxDistance {
			out[code] = best
		}
	}
	return out
}
