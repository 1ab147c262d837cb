// Package units resolves the count unit of every field observation and
// reshapes raw counts into per-unit columns.
package units

import (
	"fmt"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// Resolution is a decided unit with its provenance.
type Resolution struct {
	Unit   model.CountUnit
	Status model.UnitStatus
	Source string
}

// Rule decides a unit for one observation or declines.
type Rule struct {
	Name    string
	Resolve func(o model.Observation, c *Context) (Resolution, bool)
}

// Context is the read-only state rules consult.
type Context struct {
	Catalog *taxa.Catalog
	// Matches holds the distribution match per species code, computed once
	// over the whole table.
	Matches map[string]Match
}

// DefaultRules is the resolution cascade; the first rule that decides wins.
var DefaultRules = []Rule{
	{Name: "known", Resolve: resolveKnown},
	{Name: "morphology", Resolve: resolveMorphology},
	{Name: "distribution", Resolve: resolveDistribution},
}

func resolveKnown(o model.Observation, _ *Context) (Resolution, bool) {
	if o.RawUnit == model.UnitNone {
		return Resolution{}, false
	}
	return Resolution{Unit: o.RawUnit, Status: model.StatusKnown, Source: "recorded in field data"}, true
}

func resolveMorphology(o model.Observation, c *Context) (Resolution, bool) {
	if c.Catalog == nil {
		return Resolution{}, false
	}
	unit, reason, ok := c.Catalog.MorphologyUnit(o.SpeciesCode, o.Genus())
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Unit: unit, Status: model.StatusAssumed, Source: "morphology: " + reason}, true
}

func resolveDistribution(o model.Observation, c *Context) (Resolution, bool) {
	m, ok := c.Matches[o.SpeciesCode]
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Unit:   m.Unit,
		Status: model.StatusAssumed,
		Source: fmt.Sprintf("distribution match to known %s rows (ks=%.3f)", m.Unit, m.Distance),
	}, true
}
