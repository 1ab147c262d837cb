// Package pipeline runs the four calorie stages in order, persists each
// stage's output and writes the result tables.
package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/nectar-cli/internal/calories"
	"github.com/sells-group/nectar-cli/internal/config"
	"github.com/sells-group/nectar-cli/internal/flowers"
	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/nectar"
	"github.com/sells-group/nectar-cli/internal/store"
	"github.com/sells-group/nectar-cli/internal/survey"
	"github.com/sells-group/nectar-cli/internal/units"
)

// Result is everything one run produced.
type Result struct {
	RunID             string
	Observations      []model.Observation
	UnitStats         units.Stats
	Flowers           flowers.Result
	CaloriesPerFlower []model.CaloriesPerFlower
	Plants            []model.PlantCalories
	Missing           []model.PlantCalories
	Outputs           []string
}

// Tables renders every stage output in write order.
func (r *Result) Tables() []survey.Rendered {
	var key []model.BractKeyEntry
	if r.Flowers.BractKey != nil {
		key = r.Flowers.BractKey.Entries
	}
	return []survey.Rendered{
		survey.RenderObservations(r.Observations),
		survey.RenderFlowersPerUnit(r.Flowers.FlowersPerUnit),
		survey.RenderCandidates(r.Flowers.Candidates),
		survey.RenderBractKey(key),
		survey.RenderCaloriesPerFlower(r.CaloriesPerFlower),
		survey.RenderPlantCalories(r.Plants),
		survey.RenderMissing(r.Missing),
	}
}

// Pipeline orchestrates stages 1-4.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
}

// New creates a Pipeline. A nil store runs without persistence.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: st}
}

// Resolve runs stage 1 on its own.
func (p *Pipeline) Resolve(in *Inputs) ([]model.Observation, units.Stats) {
	r := units.NewResolver(in.Catalog, units.Options{
		Match: units.MatchOptions{
			MinKnownRows:   p.cfg.Resolver.MinKnownRows,
			MinUnknownRows: p.cfg.Resolver.MinUnknownRows,
			MaxDistance:    p.cfg.Resolver.MaxKSDistance,
		},
	})
	return r.Resolve(in.Observations)
}

// Nectar runs stage 3 on its own for species plus every sampled species.
func (p *Pipeline) Nectar(in *Inputs, species []string) []model.CaloriesPerFlower {
	return nectar.NewConverter(in.Catalog, p.cfg.Nectar.KcalPerGram).Convert(in.Nectar, species)
}

// Run executes every stage over in. With a store, the run and each stage
// artifact are recorded and the run ends complete or failed.
func (p *Pipeline) Run(ctx context.Context, in *Inputs) (*Result, error) {
	log := zap.L()
	result := &Result{}

	if p.store != nil {
		run, err := p.store.CreateRun(ctx, inputPaths(p.cfg.Inputs))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		result.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}
	log.Info("pipeline: starting run", zap.Int("observations", len(in.Observations)))

	err := p.run(ctx, log, in, result)

	if p.store != nil {
		status, msg := model.RunStatusComplete, ""
		if err != nil {
			status, msg = model.RunStatusFailed, err.Error()
		}
		// The run may have been cancelled; the status write must still land.
		if statusErr := p.store.UpdateRunStatus(context.WithoutCancel(ctx), result.RunID, status, msg); statusErr != nil {
			log.Warn("pipeline: failed to update run status", zap.Error(statusErr))
		}
	}
	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		return result, err
	}

	log.Info("pipeline: run complete",
		zap.Int("plants", len(result.Plants)),
		zap.Int("missing", len(result.Missing)),
		zap.Strings("outputs", result.Outputs),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, in *Inputs, result *Result) error {
	stage := func(name model.Stage, rows int, v any, fn func() error) error {
		start := time.Now()
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "pipeline: %s", name)
		}
		if fn != nil {
			if err := fn(); err != nil {
				return err
			}
		}
		if err := p.saveArtifact(ctx, result.RunID, name, rows, v); err != nil {
			return err
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", string(name)),
			zap.Int("rows", rows),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	// Stage 1
	result.Observations, result.UnitStats = p.Resolve(in)
	if err := stage(model.StageCountUnits, len(result.Observations), result.Observations, nil); err != nil {
		return err
	}

	// Stage 2
	est := flowers.NewEstimator(in.Catalog, flowers.Options{
		BractThreshold:    p.cfg.Estimate.BractThreshold,
		BractFloorFlowers: p.cfg.Estimate.BractFloorFlowers,
	})
	result.Flowers = est.Estimate(flowers.Inputs{
		Observations: result.Observations,
		Thesis:       in.Thesis,
		Notes:        in.Notes,
		Bags:         in.Bags,
		Cameras:      in.Cameras,
		Expert:       in.Expert,
	})
	if err := stage(model.StageFlowersPerUnit, len(result.Flowers.FlowersPerUnit), result.Flowers.FlowersPerUnit, nil); err != nil {
		return err
	}
	if err := stage(model.StageFlowerCandidates, len(result.Flowers.Candidates), result.Flowers.Candidates, nil); err != nil {
		return err
	}
	key := result.Flowers.BractKey
	if err := stage(model.StageBractKey, len(key.Entries), key.Entries, nil); err != nil {
		return err
	}

	// Stage 3
	result.CaloriesPerFlower = p.Nectar(in, CaloriesSpecies(result.Observations))
	if err := stage(model.StageCaloriesPerFlower, len(result.CaloriesPerFlower), result.CaloriesPerFlower, nil); err != nil {
		return err
	}

	// Stage 4
	calc := calories.NewCalculator(
		flowers.NewTable(result.Flowers.FlowersPerUnit),
		key,
		nectar.NewTable(result.CaloriesPerFlower),
		in.Catalog.IsFocal,
	)
	result.Plants = calc.Calculate(result.Observations)
	result.Missing = calories.Missing(result.Plants)
	savePlants := func() error {
		if p.store == nil {
			return nil
		}
		return eris.Wrap(p.store.SavePlantCalories(ctx, result.RunID, result.Plants), "pipeline: save plant calories")
	}
	if err := stage(model.StagePlantCalories, len(result.Plants), result.Plants, savePlants); err != nil {
		return err
	}

	if p.cfg.Output.Dir == "" {
		return nil
	}
	paths, err := WriteTables(p.cfg.Output.Dir, p.cfg.Output.Format, result.Tables())
	if err != nil {
		return err
	}
	result.Outputs = paths
	return nil
}

func (p *Pipeline) saveArtifact(ctx context.Context, runID string, stage model.Stage, rows int, v any) error {
	if p.store == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", stage)
	}
	return eris.Wrapf(p.store.SaveArtifact(ctx, runID, stage, rows, payload), "pipeline: save %s", stage)
}

// CaloriesSpecies lists the distinct calories species, sorted.
func CaloriesSpecies(obs []model.Observation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range obs {
		code := o.SpeciesForCalories
		if code == "" {
			code = o.SpeciesCode
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
