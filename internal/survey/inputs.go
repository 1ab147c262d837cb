package survey

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/fetcher"
	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// Column aliases accepted for each field, most specific first.
var (
	colSpecies    = []string{"species_code", "species", "code"}
	colSciName    = []string{"scientific_name", "sci_name", "taxon"}
	colSite       = []string{"site", "patch", "site_code"}
	colYear       = []string{"year"}
	colPlant      = []string{"plant_id", "plant", "individual_id"}
	colCount      = []string{"count", "count_value", "resource_count", "num"}
	colCountUnit  = []string{"count_unit", "unit"}
	colBracts     = []string{"bract_count", "num_bracts", "bracts"}
	colFlowers    = []string{"flower_count", "num_flowers", "flowers", "total_flowers"}
	colInfl       = []string{"num_inflorescences", "inflorescence_count", "inflorescences"}
	colTrees      = []string{"num_trees", "tree_count", "trees"}
	colDate       = []string{"date", "sample_date", "sampling_date"}
	colInflID     = []string{"inflorescence_id", "infl_id"}
	colFlowering  = []string{"flowering", "still_flowering"}
	colStatus     = []string{"status", "flowering_status"}
	colCamera     = []string{"camera_id", "camera"}
	colSingle     = []string{"single_inflorescence", "one_inflorescence"}
	colInFrame    = []string{"inflorescences_in_frame", "num_inflorescences_in_frame"}
	colFPU        = []string{"flowers_per_unit", "flowers_per_inflorescence", "estimate"}
	colExpert     = []string{"expert", "source"}
	colVolume     = []string{"volume_ul", "nectar_volume_ul", "volume"}
	colBrix       = []string{"concentration_brix", "brix", "concentration"}
	noLongerFlags = []string{"done", "finished", "no longer flowering", "not flowering", "senesced"}
)

// Load reads a table and applies parse. An empty path yields no records.
func Load[T any](ctx context.Context, path string, parse func(*fetcher.Table) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	t, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return parse(t)
}

func warnBadCells(t *fetcher.Table, n *numCell) {
	if n.bad > 0 {
		zap.L().Warn("survey: unparseable numeric cells treated as missing",
			zap.String("path", t.Path),
			zap.Int("cells", n.bad),
		)
	}
}

// ParseObservations maps the per-plant field record table. Rows are numbered
// from 1 in file order; that number follows the row through every stage.
func ParseObservations(t *fetcher.Table) ([]model.Observation, error) {
	if err := requireAny(t, "observations", colSpecies); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.Observation, 0, len(t.Rows))
	for i, row := range t.Rows {
		unit, _ := model.ParseCountUnit(t.Get(row, colCountUnit...))
		o := model.Observation{
			RowID:          i + 1,
			PlantID:        t.Get(row, colPlant...),
			SpeciesCode:    taxa.NormalizeCode(t.Get(row, colSpecies...)),
			ScientificName: t.Get(row, colSciName...),
			Site:           t.Get(row, colSite...),
			Year:           parseIntOr(t.Get(row, colYear...), 0),
			Count:          n.parse(t.Get(row, colCount...)),
			RawUnit:        unit,
			BractCount:     n.parse(t.Get(row, colBracts...)),
			FlowerCount:    n.parse(t.Get(row, colFlowers...)),
		}
		if o.SpeciesCode == "" {
			zap.L().Debug("survey: observation without species code", zap.Int("row", o.RowID))
		}
		out = append(out, o)
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseThesisCounts maps dedicated per-inflorescence flower tallies.
func ParseThesisCounts(t *fetcher.Table) ([]model.ThesisCount, error) {
	if err := requireAny(t, "thesis", colSpecies, colFlowers); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.ThesisCount, 0, len(t.Rows))
	for _, row := range t.Rows {
		flowering := parseBool(t.Get(row, colFlowering...), true)
		status := strings.ToLower(t.Get(row, colStatus...))
		for _, flag := range noLongerFlags {
			if status == flag {
				flowering = false
			}
		}
		out = append(out, model.ThesisCount{
			SpeciesCode:     taxa.NormalizeCode(t.Get(row, colSpecies...)),
			InflorescenceID: t.Get(row, colInflID...),
			NumFlowers:      n.parse(t.Get(row, colFlowers...)),
			Flowering:       flowering,
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseNoteCounts maps opportunistic survey notes.
func ParseNoteCounts(t *fetcher.Table) ([]model.NoteCount, error) {
	if err := requireAny(t, "notes", colSpecies, colFlowers); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.NoteCount, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.NoteCount{
			SpeciesCode:       taxa.NormalizeCode(t.Get(row, colSpecies...)),
			PlantID:           t.Get(row, colPlant...),
			NumFlowers:        n.parse(t.Get(row, colFlowers...)),
			NumInflorescences: n.parse(t.Get(row, colInfl...)),
			NumTrees:          n.parse(t.Get(row, colTrees...)),
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseBagSamples maps nectar-bag flower extractions.
func ParseBagSamples(t *fetcher.Table) ([]model.BagSample, error) {
	if err := requireAny(t, "nectar bags", colSpecies, colPlant, colDate, colFlowers); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.BagSample, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.BagSample{
			SpeciesCode: taxa.NormalizeCode(t.Get(row, colSpecies...)),
			PlantID:     t.Get(row, colPlant...),
			Date:        t.Get(row, colDate...),
			NumFlowers:  n.parse(t.Get(row, colFlowers...)),
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseCameraCounts maps camera-day flower counts. A camera frames a single
// inflorescence when the review flag says so or exactly one inflorescence
// was counted in frame.
func ParseCameraCounts(t *fetcher.Table) ([]model.CameraCount, error) {
	if err := requireAny(t, "cameras", colSpecies, colDate, colFlowers); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.CameraCount, 0, len(t.Rows))
	for _, row := range t.Rows {
		single := parseBool(t.Get(row, colSingle...), false)
		if inFrame := model.ParseNum(t.Get(row, colInFrame...)); inFrame.Valid {
			single = inFrame.V == 1
		}
		camera := t.Get(row, colCamera...)
		plant := t.Get(row, colPlant...)
		if plant == "" {
			plant = camera
		}
		out = append(out, model.CameraCount{
			SpeciesCode:         taxa.NormalizeCode(t.Get(row, colSpecies...)),
			CameraID:            camera,
			PlantID:             plant,
			Date:                t.Get(row, colDate...),
			NumFlowers:          n.parse(t.Get(row, colFlowers...)),
			SingleInflorescence: single,
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseExpertEstimates maps expert point values. Rows without a value are
// dropped; a missing unit means inflorescence.
func ParseExpertEstimates(t *fetcher.Table) ([]model.ExpertEstimate, error) {
	if err := requireAny(t, "expert", colSpecies, colFPU); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.ExpertEstimate, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := n.parse(t.Get(row, colFPU...))
		if !v.Valid {
			continue
		}
		unit, ok := model.ParseCountUnit(t.Get(row, colCountUnit...))
		if !ok {
			unit = model.UnitInflorescence
		}
		out = append(out, model.ExpertEstimate{
			SpeciesCode:    taxa.NormalizeCode(t.Get(row, colSpecies...)),
			CountUnit:      unit,
			FlowersPerUnit: v.V,
			Expert:         t.Get(row, colExpert...),
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// ParseNectarSamples maps per-flower nectar measurements.
func ParseNectarSamples(t *fetcher.Table) ([]model.NectarSample, error) {
	if err := requireAny(t, "nectar", colSpecies, colVolume, colBrix); err != nil {
		return nil, err
	}

	var n numCell
	out := make([]model.NectarSample, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.NectarSample{
			SpeciesCode:       taxa.NormalizeCode(t.Get(row, colSpecies...)),
			PlantID:           t.Get(row, colPlant...),
			Date:              t.Get(row, colDate...),
			VolumeUL:          n.parse(t.Get(row, colVolume...)),
			ConcentrationBrix: n.parse(t.Get(row, colBrix...)),
		})
	}
	warnBadCells(t, &n)
	return out, nil
}

// requireAny checks that each alias group has at least one present column.
func requireAny(t *fetcher.Table, what string, groups ...[]string) error {
	for _, g := range groups {
		if !t.Has(g...) {
			return eris.Errorf("survey: %s: %s: missing required column %q", what, t.Path, g[0])
		}
	}
	return nil
}
