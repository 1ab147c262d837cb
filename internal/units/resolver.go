package units

import (
	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// Options configures a Resolver.
type Options struct {
	Match MatchOptions
	Rules []Rule
}

// Stats counts how rows were resolved.
type Stats struct {
	Known     int `json:"known"`
	Assumed   int `json:"assumed"`
	Bracketed int `json:"bracketed"`
	Rows      int `json:"rows"`
}

// Resolver runs the count unit stage.
type Resolver struct {
	catalog *taxa.Catalog
	opts    Options
}

// NewResolver returns a Resolver using catalog for morphology and
// species-for-calories lookups. Nil Rules means DefaultRules.
func NewResolver(catalog *taxa.Catalog, opts Options) *Resolver {
	if opts.Rules == nil {
		opts.Rules = DefaultRules
	}
	return &Resolver{catalog: catalog, opts: opts}
}

// Resolve annotates every observation with a count unit and reshapes its
// count. Unresolved rows become a low (flower) and high (inflorescence)
// pair sharing the original RowID. Input order is preserved.
func (r *Resolver) Resolve(obs []model.Observation) ([]model.Observation, Stats) {
	c := &Context{
		Catalog: r.catalog,
		Matches: DistributionMatches(obs, r.opts.Match),
	}

	var st Stats
	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if r.catalog != nil {
			o.SpeciesForCalories = r.catalog.CaloriesSpecies(o.SpeciesCode)
		} else {
			o.SpeciesForCalories = o.SpeciesCode
		}

		res, rule, ok := r.first(o, c)
		if !ok {
			st.Bracketed++
			out = append(out, bracket(o)...)
			continue
		}
		switch res.Status {
		case model.StatusKnown:
			st.Known++
		case model.StatusAssumed:
			st.Assumed++
		}
		o.CountUnit = res.Unit
		o.CountUnitStatus = res.Status
		o.CountUnitSource = res.Source
		reshape(&o)
		out = append(out, o)
		zap.L().Debug("units: resolved",
			zap.Int("row", o.RowID),
			zap.String("species", o.SpeciesCode),
			zap.String("rule", rule),
			zap.String("unit", string(res.Unit)),
		)
	}
	st.Rows = len(out)

	zap.L().Info("units: count units resolved",
		zap.Int("observations", len(obs)),
		zap.Int("known", st.Known),
		zap.Int("assumed", st.Assumed),
		zap.Int("bracketed", st.Bracketed),
		zap.Int("distribution_matches", len(c.Matches)),
	)
	return out, st
}

func (r *Resolver) first(o model.Observation, c *Context) (Resolution, string, bool) {
	for _, rule := range r.opts.Rules {
		if res, ok := rule.Resolve(o, c); ok {
			return res, rule.Name, true
		}
	}
	return Resolution{}, "", false
}

// bracket splits an unresolved row into its low and high variants. Each
// variant carries the raw count in its own unit column only; flower or
// inflorescence sub-counts on the raw row are dropped so the variants differ.
func bracket(o model.Observation) []model.Observation {
	low, high := o, o
	low.CountUnit, low.Bound = model.UnitFlower, model.BoundLow
	low.FlowerCount, low.InflorescenceCount = o.Count, model.NA
	high.CountUnit, high.Bound = model.UnitInflorescence, model.BoundHigh
	high.FlowerCount, high.InflorescenceCount = model.NA, o.Count
	for _, b := range []*model.Observation{&low, &high} {
		b.CountUnitStatus = model.StatusUnknown
		b.CountUnitSource = "unresolved: bracketed as flower (low) and inflorescence (high)"
	}
	return []model.Observation{low, high}
}

// reshape moves the raw count into the column for the resolved unit. A
// sub-count already recorded in that column is kept.
func reshape(o *model.Observation) {
	if !o.Count.Valid {
		return
	}
	if o.UnitCount(o.CountUnit).Valid {
		return
	}
	o.SetUnitCount(o.CountUnit, o.Count)
}
