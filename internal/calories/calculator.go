// Package calories joins flower and nectar estimates back onto resolved
// observations to produce per-plant flower and calorie totals.
package calories

import (
	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/model"
)

// FlowersPerUnit looks up flowers per count unit for a species.
type FlowersPerUnit interface {
	Lookup(code string, unit model.CountUnit) model.Num
}

// BractKey looks up flowers for a bract count of the focal species.
type BractKey interface {
	Lookup(bracts model.Num) model.Num
}

// CaloriesPerFlower looks up the nectar reward of a species.
type CaloriesPerFlower interface {
	Lookup(code string) model.Num
}

// Calculator runs the per-plant stage.
type Calculator struct {
	fpu     FlowersPerUnit
	key     BractKey
	cpf     CaloriesPerFlower
	isFocal func(string) bool
}

// NewCalculator returns a Calculator. isFocal reports whether a calories
// species is counted through the bract key.
func NewCalculator(fpu FlowersPerUnit, key BractKey, cpf CaloriesPerFlower, isFocal func(string) bool) *Calculator {
	if isFocal == nil {
		isFocal = func(string) bool { return false }
	}
	return &Calculator{fpu: fpu, key: key, cpf: cpf, isFocal: isFocal}
}

// Calculate produces one row per observation, in order. Undefined inputs
// leave the derived values undefined with a reason; a zero flower count
// yields zero calories.
func (c *Calculator) Calculate(obs []model.Observation) []model.PlantCalories {
	out := make([]model.PlantCalories, 0, len(obs))
	missing := 0
	for _, o := range obs {
		p := c.plant(o)
		if p.Missing() {
			missing++
			zap.L().Debug("calories: undefined plant estimate",
				zap.Int("row", o.RowID),
				zap.String("species", o.SpeciesCode),
				zap.String("reason", string(p.MissingReason)),
			)
		}
		out = append(out, p)
	}
	zap.L().Info("calories: plant calories computed",
		zap.Int("rows", len(out)),
		zap.Int("missing", missing),
	)
	return out
}

func (c *Calculator) plant(o model.Observation) model.PlantCalories {
	p := model.PlantCalories{Observation: o}
	species := o.SpeciesForCalories
	if species == "" {
		species = o.SpeciesCode
	}

	flowers, src, reason := c.flowers(o, species)
	p.NumFlowersEstimate = flowers
	p.FlowerSource = src
	if !flowers.Valid {
		p.CaloriesPerPlant = model.NA
		p.MissingReason = reason
		return p
	}

	cpf := model.NA
	if c.cpf != nil {
		cpf = c.cpf.Lookup(species)
	}
	p.CaloriesPerPlant = flowers.Mul(cpf)
	if !p.CaloriesPerPlant.Valid {
		p.MissingReason = model.MissingCaloriesPerFlower
	}
	return p
}

// flowers applies the estimate rules in priority order: the bract key for
// the focal species, then a direct flower count, then the unit count times
// flowers per unit.
func (c *Calculator) flowers(o model.Observation, species string) (model.Num, model.FlowerSource, model.MissingReason) {
	if c.isFocal(species) && o.BractCount.Valid {
		if c.key == nil {
			return model.NA, model.FlowersNone, model.MissingBractKey
		}
		f := c.key.Lookup(o.BractCount)
		if !f.Valid {
			return model.NA, model.FlowersNone, model.MissingBractKey
		}
		return f, model.FlowersBractKey, model.MissingNone
	}

	if o.FlowerCount.Valid {
		return o.FlowerCount, model.FlowersDirect, model.MissingNone
	}

	var src model.FlowerSource
	switch o.CountUnit {
	case model.UnitInflorescence:
		src = model.FlowersPerInflorescence
	case model.UnitTree:
		src = model.FlowersPerTree
	case model.UnitBract:
		// Bract-counted species outside the focal key need a per-bract figure.
		src = model.FlowersPerBract
	default:
		return model.NA, model.FlowersNone, model.MissingCount
	}

	count := o.UnitCount(o.CountUnit)
	if !count.Valid {
		return model.NA, model.FlowersNone, model.MissingCount
	}
	per := model.NA
	if c.fpu != nil {
		per = c.fpu.Lookup(species, o.CountUnit)
	}
	if !per.Valid {
		return model.NA, model.FlowersNone, model.MissingFlowersPerUnit
	}
	return count.Mul(per), src, model.MissingNone
}

// Missing returns the rows whose flower or calorie estimate is undefined.
func Missing(plants []model.PlantCalories) []model.PlantCalories {
	var out []model.PlantCalories
	for _, p := range plants {
		if p.Missing() {
			out = append(out, p)
		}
	}
	return out
}
