package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/nectar-cli/internal/config"
	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/survey"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

// Inputs holds every raw table a run consumes.
type Inputs struct {
	Catalog      *taxa.Catalog
	Observations []model.Observation
	Thesis       []model.ThesisCount
	Notes        []model.NoteCount
	Bags         []model.BagSample
	Cameras      []model.CameraCount
	Expert       []model.ExpertEstimate
	Nectar       []model.NectarSample
}

// LoadInputs reads the configured tables in parallel. Empty paths yield no
// records; an empty catalog path uses the embedded catalog.
func LoadInputs(ctx context.Context, cfg config.InputsConfig) (*Inputs, error) {
	in := &Inputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cat, err := taxa.Load(cfg.Catalog)
		if err != nil {
			return eris.Wrap(err, "pipeline: load catalog")
		}
		in.Catalog = cat
		return nil
	})
	g.Go(func() error {
		var err error
		in.Observations, err = survey.Load(gctx, cfg.Observations, survey.ParseObservations)
		return eris.Wrap(err, "pipeline: load observations")
	})
	g.Go(func() error {
		var err error
		in.Thesis, err = survey.Load(gctx, cfg.Thesis, survey.ParseThesisCounts)
		return eris.Wrap(err, "pipeline: load thesis counts")
	})
	g.Go(func() error {
		var err error
		in.Notes, err = survey.Load(gctx, cfg.Notes, survey.ParseNoteCounts)
		return eris.Wrap(err, "pipeline: load field notes")
	})
	g.Go(func() error {
		var err error
		in.Bags, err = survey.Load(gctx, cfg.NectarBags, survey.ParseBagSamples)
		return eris.Wrap(err, "pipeline: load nectar bags")
	})
	g.Go(func() error {
		var err error
		in.Cameras, err = survey.Load(gctx, cfg.Cameras, survey.ParseCameraCounts)
		return eris.Wrap(err, "pipeline: load camera counts")
	})
	g.Go(func() error {
		var err error
		in.Expert, err = survey.Load(gctx, cfg.Expert, survey.ParseExpertEstimates)
		return eris.Wrap(err, "pipeline: load expert estimates")
	})
	g.Go(func() error {
		var err error
		in.Nectar, err = survey.Load(gctx, cfg.Nectar, survey.ParseNectarSamples)
		return eris.Wrap(err, "pipeline: load nectar samples")
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: inputs loaded",
		zap.Int("observations", len(in.Observations)),
		zap.Int("thesis", len(in.Thesis)),
		zap.Int("notes", len(in.Notes)),
		zap.Int("bags", len(in.Bags)),
		zap.Int("cameras", len(in.Cameras)),
		zap.Int("expert", len(in.Expert)),
		zap.Int("nectar", len(in.Nectar)),
	)
	return in, nil
}

// inputPaths records the configured input paths on the run.
func inputPaths(cfg config.InputsConfig) map[string]string {
	all := map[string]string{
		"observations": cfg.Observations,
		"thesis":       cfg.Thesis,
		"notes":        cfg.Notes,
		"nectar_bags":  cfg.NectarBags,
		"cameras":      cfg.Cameras,
		"expert":       cfg.Expert,
		"nectar":       cfg.Nectar,
		"catalog":      cfg.Catalog,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
