package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nectar-cli/internal/config"
	"github.com/sells-group/nectar-cli/internal/model"
)

func TestSitePlants_StoredRun(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sites.db")
	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: dsn}}
	t.Cleanup(func() { cfg = nil })

	st, err := requireStore(ctx)
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, map[string]string{"observations": "obs.csv"})
	require.NoError(t, err)
	require.NoError(t, st.SavePlantCalories(ctx, run.ID, []model.PlantCalories{
		{
			Observation:        model.Observation{RowID: 1, SpeciesCode: "HETO", Site: "A1", Year: 2019},
			NumFlowersEstimate: model.Some(9),
			CaloriesPerPlant:   model.Some(36.1),
		},
	}))
	require.NoError(t, st.Close())

	plants, err := sitePlants(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "A1", plants[0].Site)
	assert.InDelta(t, 36.1, plants[0].CaloriesPerPlant.V, 1e-9)
}

func TestRequireStore_None(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "none"}}
	t.Cleanup(func() { cfg = nil })

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = requireStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is none")
}
