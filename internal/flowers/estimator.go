package flowers

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// Inputs are the stage inputs: resolved observations and each survey source.
type Inputs struct {
	Observations []model.Observation
	Thesis       []model.ThesisCount
	Notes        []model.NoteCount
	Bags         []model.BagSample
	Cameras      []model.CameraCount
	Expert       []model.ExpertEstimate
}

// Options configures the bract key.
type Options struct {
	BractThreshold    int
	BractFloorFlowers float64
}

// Result is the stage output.
type Result struct {
	FlowersPerUnit []model.FlowersPerUnit
	Candidates     []model.Summary
	BractKey       *BractKey
}

// Estimator runs the flowers-per-unit stage.
type Estimator struct {
	catalog *taxa.Catalog
	opts    Options
}

// NewEstimator returns an Estimator.
func NewEstimator(catalog *taxa.Catalog, opts Options) *Estimator {
	return &Estimator{catalog: catalog, opts: opts}
}

// Estimate summarizes every source, selects one figure per species and unit,
// backfills tree species and fills what is left from expert values.
func (e *Estimator) Estimate(in Inputs) Result {
	var cands []model.Summary
	cands = append(cands, SummarizeThesis(in.Thesis)...)
	cands = append(cands, SummarizeNotes(in.Notes)...)
	cands = append(cands, SummarizeBags(in.Bags, e.catalog)...)
	cands = append(cands, SummarizeCameras(in.Cameras)...)

	selected := Select(cands, e.isFocal)
	chosen := make(map[model.UnitKey]model.FlowersPerUnit, len(selected))
	for _, f := range selected {
		chosen[f.Key()] = f
	}

	backfilled := e.backfillTrees(cands, chosen)
	cands = append(cands, backfilled...)

	expert := SummarizeExpert(in.Expert)
	filled := 0
	for i := range expert {
		s := &expert[i]
		key := model.UnitKey{SpeciesCode: s.SpeciesCode, CountUnit: s.CountUnit}
		if _, ok := chosen[key]; ok || e.isFocal(s.SpeciesCode) {
			continue
		}
		s.Selected = true
		chosen[key] = fromSummary(*s)
		filled++
	}
	cands = append(cands, expert...)

	out := make([]model.FlowersPerUnit, 0, len(chosen))
	for _, f := range chosen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SpeciesCode != out[j].SpeciesCode {
			return out[i].SpeciesCode < out[j].SpeciesCode
		}
		return out[i].CountUnit < out[j].CountUnit
	})

	key := BuildBractKey(in.Observations, e.isFocal, e.opts.BractThreshold, e.opts.BractFloorFlowers)

	zap.L().Info("flowers: flowers per unit estimated",
		zap.Int("candidates", len(cands)),
		zap.Int("selected", len(out)),
		zap.Int("tree_backfilled", len(backfilled)),
		zap.Int("expert_filled", filled),
		zap.Int("bract_key_entries", len(key.Entries)),
	)
	return Result{FlowersPerUnit: out, Candidates: cands, BractKey: key}
}

func (e *Estimator) isFocal(code string) bool {
	return e.catalog != nil && e.catalog.IsFocal(code)
}

// backfillTrees derives flowers per tree for catalog tree species lacking a
// tree figure from inflorescences per tree times the best notes or camera
// flowers-per-inflorescence figure. The derived figures are returned as
// selected candidates for the audit table.
func (e *Estimator) backfillTrees(cands []model.Summary, chosen map[model.UnitKey]model.FlowersPerUnit) []model.Summary {
	if e.catalog == nil {
		return nil
	}
	var out []model.Summary
	for _, code := range e.catalog.TreeSpecies() {
		treeKey := model.UnitKey{SpeciesCode: code, CountUnit: model.UnitTree}
		if _, ok := chosen[treeKey]; ok {
			continue
		}
		var pool []model.Summary
		for _, c := range cands {
			if c.SpeciesCode == code && c.CountUnit == model.UnitInflorescence &&
				(c.Source == model.SourceNotes || c.Source == model.SourceCameras) {
				pool = append(pool, c)
			}
		}
		if len(pool) == 0 {
			continue
		}
		rankCandidates(pool)
		best := pool[0]
		v := e.catalog.InflorescencesPerTree[code] * Central(best)
		s := model.Summary{
			SpeciesCode:    code,
			CountUnit:      model.UnitTree,
			Source:         model.SourceTreeBackfill,
			Median:         v,
			Mean:           v,
			SD:             model.NA,
			Min:            v,
			Max:            v,
			N:              best.N,
			PlantsSampled:  best.PlantsSampled,
			DatesPerPlant:  best.DatesPerPlant,
			SamplingAmount: best.SamplingAmount,
			Selected:       true,
		}
		chosen[treeKey] = fromSummary(s)
		out = append(out, s)
		zap.L().Debug("flowers: tree backfill",
			zap.String("species", code),
			zap.String("from", string(best.Source)),
		)
	}
	return out
}

// Select picks, per species and unit, the candidate with the largest
// sampling amount. Ties go to the earlier-declared source. Species for
// which skip returns true are left out of the competition. Chosen
// candidates are flagged Selected in place.
func Select(cands []model.Summary, skip func(string) bool) []model.FlowersPerUnit {
	groups := make(map[model.UnitKey][]int)
	var keys []model.UnitKey
	for i, c := range cands {
		if skip != nil && skip(c.SpeciesCode) {
			continue
		}
		key := model.UnitKey{SpeciesCode: c.SpeciesCode, CountUnit: c.CountUnit}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}
	sortKeys(keys)

	out := make([]model.FlowersPerUnit, 0, len(keys))
	for _, key := range keys {
		idx := groups[key]
		sort.SliceStable(idx, func(a, b int) bool {
			return better(cands[idx[a]], cands[idx[b]])
		})
		cands[idx[0]].Selected = true
		out = append(out, fromSummary(cands[idx[0]]))
	}
	return out
}

func rankCandidates(pool []model.Summary) {
	sort.SliceStable(pool, func(i, j int) bool { return better(pool[i], pool[j]) })
}

// better orders by sampling amount descending, undefined last, then by
// source declaration order.
func better(a, b model.Summary) bool {
	if a.SamplingAmount.Valid != b.SamplingAmount.Valid {
		return a.SamplingAmount.Valid
	}
	if a.SamplingAmount.Valid && a.SamplingAmount.V != b.SamplingAmount.V {
		return a.SamplingAmount.V > b.SamplingAmount.V
	}
	return a.Source.Rank() < b.Source.Rank()
}

func fromSummary(s model.Summary) model.FlowersPerUnit {
	return model.FlowersPerUnit{
		SpeciesCode:    s.SpeciesCode,
		CountUnit:      s.CountUnit,
		FlowersPerUnit: Central(s),
		Source:         s.Source,
		SamplingAmount: s.SamplingAmount,
	}
}

// Table indexes selected figures by species and unit.
type Table map[model.UnitKey]model.FlowersPerUnit

// NewTable indexes fpu.
func NewTable(fpu []model.FlowersPerUnit) Table {
	t := make(Table, len(fpu))
	for _, f := range fpu {
		t[f.Key()] = f
	}
	return t
}

// Lookup returns flowers per unit for a species, undefined when absent.
func (t Table) Lookup(code string, unit model.CountUnit) model.Num {
	f, ok := t[model.UnitKey{SpeciesCode: code, CountUnit: unit}]
	if !ok {
		return model.NA
	}
	return model.Some(f.FlowersPerUnit)
}
