package flowers

import (
	"sort"
	"strconv"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SummarizeThesis summarizes dedicated per-inflorescence tallies. Zero-flower
// and no-longer-flowering records are excluded; sampling amount is the
// number of inflorescence records since sampling dates were not kept.
func SummarizeThesis(records []model.ThesisCount) []model.Summary {
	values := make(map[string][]float64)
	for _, r := range records {
		if !r.Flowering || !r.NumFlowers.Valid || r.NumFlowers.V <= 0 {
			continue
		}
		values[r.SpeciesCode] = append(values[r.SpeciesCode], r.NumFlowers.V)
	}

	out := make([]model.Summary, 0, len(values))
	for _, code := range sortedKeys(values) {
		s := model.Summary{
			SpeciesCode:   code,
			CountUnit:     model.UnitInflorescence,
			Source:        model.SourceThesis,
			DatesPerPlant: model.NA,
		}
		describe(&s, values[code])
		s.PlantsSampled = s.N
		s.SamplingAmount = model.Some(float64(s.N))
		out = append(out, s)
	}
	return out
}

// SummarizeNotes summarizes flowers per inflorescence, or per tree when only
// trees were counted, from opportunistic survey notes. Each note is one
// plant sampled once.
func SummarizeNotes(records []model.NoteCount) []model.Summary {
	type group struct {
		values []float64
		plants map[string]bool
	}
	groups := make(map[model.UnitKey]*group)
	for i, r := range records {
		if !r.NumFlowers.Valid || r.NumFlowers.V <= 0 {
			continue
		}
		var unit model.CountUnit
		var denom float64
		switch {
		case r.NumInflorescences.Valid && r.NumInflorescences.V > 0:
			unit, denom = model.UnitInflorescence, r.NumInflorescences.V
		case r.NumTrees.Valid && r.NumTrees.V > 0:
			unit, denom = model.UnitTree, r.NumTrees.V
		default:
			continue
		}
		key := model.UnitKey{SpeciesCode: r.SpeciesCode, CountUnit: unit}
		g := groups[key]
		if g == nil {
			g = &group{plants: make(map[string]bool)}
			groups[key] = g
		}
		g.values = append(g.values, r.NumFlowers.V/denom)
		plant := r.PlantID
		if plant == "" {
			plant = "row-" + strconv.Itoa(i)
		}
		g.plants[plant] = true
	}

	keys := make([]model.UnitKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sortKeys(keys)

	out := make([]model.Summary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		s := model.Summary{
			SpeciesCode:   k.SpeciesCode,
			CountUnit:     k.CountUnit,
			Source:        model.SourceNotes,
			PlantsSampled: len(g.plants),
			DatesPerPlant: model.Some(1),
		}
		describe(&s, g.values)
		s.SamplingAmount = model.Some(float64(s.PlantsSampled))
		out = append(out, s)
	}
	return out
}

// SummarizeBags summarizes nectar-bag extractions as the mean of per-plant
// flowers-per-day rates. Only species whose bag holds a single inflorescence
// with daily turnover are used.
func SummarizeBags(records []model.BagSample, catalog *taxa.Catalog) []model.Summary {
	rates := make(map[string]*dayRates)
	for _, r := range records {
		if !r.NumFlowers.Valid || catalog == nil || !catalog.IsBagSpecies(r.SpeciesCode) {
			continue
		}
		d := rates[r.SpeciesCode]
		if d == nil {
			d = newDayRates()
			rates[r.SpeciesCode] = d
		}
		d.add(r.PlantID, r.Date, r.NumFlowers.V)
	}
	return summarizeRates(rates, model.SourceNectarBags)
}

// SummarizeCameras applies the day-rate method to camera counts from cameras
// that frame a single inflorescence. Zero-flower days are excluded.
func SummarizeCameras(records []model.CameraCount) []model.Summary {
	rates := make(map[string]*dayRates)
	for _, r := range records {
		if !r.SingleInflorescence || !r.NumFlowers.Valid || r.NumFlowers.V <= 0 {
			continue
		}
		d := rates[r.SpeciesCode]
		if d == nil {
			d = newDayRates()
			rates[r.SpeciesCode] = d
		}
		d.add(r.PlantID, r.Date, r.NumFlowers.V)
	}
	return summarizeRates(rates, model.SourceCameras)
}

func summarizeRates(rates map[string]*dayRates, src model.Source) []model.Summary {
	out := make([]model.Summary, 0, len(rates))
	for _, code := range sortedKeys(rates) {
		if s, ok := rates[code].summarize(code, src); ok {
			out = append(out, s)
		}
	}
	return out
}

// SummarizeExpert turns expert point values into candidates without sampling
// information. The first value for a species and unit wins.
func SummarizeExpert(records []model.ExpertEstimate) []model.Summary {
	seen := make(map[model.UnitKey]bool)
	var out []model.Summary
	for _, r := range records {
		key := model.UnitKey{SpeciesCode: r.SpeciesCode, CountUnit: r.CountUnit}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.Summary{
			SpeciesCode:    r.SpeciesCode,
			CountUnit:      r.CountUnit,
			Source:         model.SourceExpert,
			Median:         r.FlowersPerUnit,
			Mean:           r.FlowersPerUnit,
			SD:             model.NA,
			Min:            r.FlowersPerUnit,
			Max:            r.FlowersPerUnit,
			N:              1,
			DatesPerPlant:  model.NA,
			SamplingAmount: model.NA,
		})
	}
	return out
}

func sortKeys(keys []model.UnitKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SpeciesCode != keys[j].SpeciesCode {
			return keys[i].SpeciesCode < keys[j].SpeciesCode
		}
		return keys[i].CountUnit < keys[j].CountUnit
	})
}
