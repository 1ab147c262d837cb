// Package flowers estimates flowers per count unit for every species from the
// independent survey sources and selects one figure per species and unit.
package flowers

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/nectar-cli/internal/model"
)

// describe fills the descriptive statistics of s from values. values must
// be non-empty.
func describe(s *model.Summary, values []float64) {
	s.N = len(values)
	s.Median = median(values)
	s.Mean = stat.Mean(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.SD = model.NA
	if len(values) > 1 {
		s.SD = model.Some(stat.StdDev(values, nil))
	}
}

// median averages the two middle values for even-length input.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Central returns the value a summary contributes when selected. Day-rate
// sources report the mean of per-plant rates; the others report the median.
func Central(s model.Summary) float64 {
	switch s.Source {
	case model.SourceNectarBags, model.SourceCameras:
		return s.Mean
	}
	return s.Median
}

// plantDays accumulates flowers and distinct dates for one plant.
type plantDays struct {
	flowers float64
	dates   map[string]bool
}

// dayRates groups per-plant flowers and dates and returns per-plant
// flowers-per-day rates with the mean number of dates per plant.
type dayRates struct {
	order  []string
	plants map[string]*plantDays
}

func newDayRates() *dayRates {
	return &dayRates{plants: make(map[string]*plantDays)}
}

func (d *dayRates) add(plant, date string, flowers float64) {
	p := d.plants[plant]
	if p == nil {
		p = &plantDays{dates: make(map[string]bool)}
		d.plants[plant] = p
		d.order = append(d.order, plant)
	}
	p.flowers += flowers
	p.dates[date] = true
}

func (d *dayRates) summarize(code string, src model.Source) (model.Summary, bool) {
	if len(d.order) == 0 {
		return model.Summary{}, false
	}
	rates := make([]float64, 0, len(d.order))
	dates := 0
	for _, plant := range d.order {
		p := d.plants[plant]
		rates = append(rates, p.flowers/float64(len(p.dates)))
		dates += len(p.dates)
	}
	s := model.Summary{
		SpeciesCode:   code,
		CountUnit:     model.UnitInflorescence,
		Source:        src,
		PlantsSampled: len(d.order),
	}
	describe(&s, rates)
	meanDates := float64(dates) / float64(len(d.order))
	s.DatesPerPlant = model.Some(meanDates)
	s.SamplingAmount = model.Some(float64(s.PlantsSampled) * meanDates)
	return s, true
}
