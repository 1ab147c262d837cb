package nectar

import (
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// fieldMeans holds a species' mean field volume and concentration.
type fieldMeans struct {
	volume model.Num
	brix   model.Num
}

// Converter builds the calories-per-flower table.
type Converter struct {
	catalog     *taxa.Catalog
	kcalPerGram float64
}

// NewConverter returns a Converter. A non-positive kcalPerGram means
// DefaultKcalPerGram.
func NewConverter(catalog *taxa.Catalog, kcalPerGram float64) *Converter {
	if kcalPerGram <= 0 {
		kcalPerGram = DefaultKcalPerGram
	}
	return &Converter{catalog: catalog, kcalPerGram: kcalPerGram}
}

// Convert returns one row per species in species and per species sampled,
// sorted by code. Each nectar component falls back from the species' own
// field mean to its congener's field mean, then to literature. Species with
// a component still missing stay undefined.
func (c *Converter) Convert(samples []model.NectarSample, species []string) []model.CaloriesPerFlower {
	means := speciesMeans(samples)

	codes := make(map[string]bool, len(species)+len(means))
	for _, s := range species {
		if s != "" {
			codes[s] = true
		}
	}
	for s := range means {
		codes[s] = true
	}
	sorted := make([]string, 0, len(codes))
	for s := range codes {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	out := make([]model.CaloriesPerFlower, 0, len(sorted))
	var substituted, literature, missing int
	for _, code := range sorted {
		row := c.resolve(code, means)
		switch row.DataSource {
		case model.NectarFieldSubstituted:
			substituted++
		case model.NectarLiterature:
			literature++
		case model.NectarNone:
			missing++
			zap.L().Warn("nectar: no nectar data for species", zap.String("species", code))
		}
		out = append(out, row)
	}

	zap.L().Info("nectar: calories per flower computed",
		zap.Int("species", len(out)),
		zap.Int("substituted", substituted),
		zap.Int("literature", literature),
		zap.Int("missing", missing),
	)
	return out
}

func (c *Converter) resolve(code string, means map[string]fieldMeans) model.CaloriesPerFlower {
	own := means[code]
	row := model.CaloriesPerFlower{
		SpeciesCode:       code,
		VolumeUL:          own.volume,
		ConcentrationBrix: own.brix,
		DataSource:        model.NectarField,
	}

	if !row.VolumeUL.Valid || !row.ConcentrationBrix.Valid {
		if sub, ok := c.substitute(code); ok {
			if m, ok := means[sub]; ok && (m.volume.Valid || m.brix.Valid) {
				filled := false
				if !row.VolumeUL.Valid && m.volume.Valid {
					row.VolumeUL, filled = m.volume, true
				}
				if !row.ConcentrationBrix.Valid && m.brix.Valid {
					row.ConcentrationBrix, filled = m.brix, true
				}
				if filled {
					row.DataSource = model.NectarFieldSubstituted
					row.SubstitutedFrom = sub
				}
			}
		}
	}

	if !row.VolumeUL.Valid || !row.ConcentrationBrix.Valid {
		if lit, ok := c.literature(code); ok {
			if !row.VolumeUL.Valid {
				row.VolumeUL = model.Some(lit.VolumeUL)
			}
			if !row.ConcentrationBrix.Valid {
				row.ConcentrationBrix = model.Some(lit.ConcentrationBrix)
			}
			row.DataSource = model.NectarLiterature
		}
	}

	row.CaloriesPerFlower = CaloriesPerFlower(row.VolumeUL, row.ConcentrationBrix, c.kcalPerGram)
	if !row.CaloriesPerFlower.Valid {
		row.DataSource = model.NectarNone
		row.SubstitutedFrom = ""
	}
	return row
}

func (c *Converter) substitute(code string) (string, bool) {
	if c.catalog == nil {
		return "", false
	}
	return c.catalog.NectarSubstitute(code)
}

func (c *Converter) literature(code string) (taxa.LiteratureNectar, bool) {
	if c.catalog == nil {
		return taxa.LiteratureNectar{}, false
	}
	return c.catalog.Literature(code)
}

func speciesMeans(samples []model.NectarSample) map[string]fieldMeans {
	vols := make(map[string][]float64)
	brix := make(map[string][]float64)
	seen := make(map[string]bool)
	for _, s := range samples {
		seen[s.SpeciesCode] = true
		if s.VolumeUL.Valid {
			vols[s.SpeciesCode] = append(vols[s.SpeciesCode], s.VolumeUL.V)
		}
		if s.ConcentrationBrix.Valid {
			brix[s.SpeciesCode] = append(brix[s.SpeciesCode], s.ConcentrationBrix.V)
		}
	}
	out := make(map[string]fieldMeans, len(seen))
	for code := range seen {
		m := fieldMeans{volume: model.NA, brix: model.NA}
		if v := vols[code]; len(v) > 0 {
			m.volume = model.Some(stat.Mean(v, nil))
		}
		if b := brix[code]; len(b) > 0 {
			m.brix = model.Some(stat.Mean(b, nil))
		}
		out[code] = m
	}
	return out
}

// Table indexes calories per flower by species.
type Table map[string]model.CaloriesPerFlower

// NewTable indexes rows.
func NewTable(rows []model.CaloriesPerFlower) Table {
	t := make(Table, len(rows))
	for _, r := range rows {
		t[r.SpeciesCode] = r
	}
	return t
}

// Lookup returns calories per flower, undefined when absent.
func (t Table) Lookup(code string) model.Num {
	r, ok := t[code]
	if !ok {
		return model.NA
	}
	return r.CaloriesPerFlower
}
