package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nectar-cli/internal/model"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPlants() []model.PlantCalories {
	return []model.PlantCalories{
		{
			Observation: model.Observation{
				RowID: 1, SpeciesCode: "COSP", SpeciesForCalories: "COSP", Site: "A1", Year: 2019,
				CountUnit: model.UnitInflorescence, CountUnitStatus: model.StatusAssumed,
				InflorescenceCount: model.Some(8), Count: model.Some(8),
			},
			NumFlowersEstimate: model.Some(48),
			CaloriesPerPlant:   model.Some(57.6),
			FlowerSource:       model.FlowersPerInflorescence,
		},
		{
			Observation: model.Observation{
				RowID: 2, SpeciesCode: "CASP", SpeciesForCalories: "CASP", Bound: model.BoundLow,
				CountUnit: model.UnitFlower, CountUnitStatus: model.StatusUnknown,
				FlowerCount: model.Some(3), Count: model.Some(3),
			},
			NumFlowersEstimate: model.Some(3),
			MissingReason:      model.MissingCaloriesPerFlower,
		},
		{
			Observation: model.Observation{
				RowID: 2, SpeciesCode: "CASP", SpeciesForCalories: "CASP", Bound: model.BoundHigh,
				CountUnit: model.UnitInflorescence, CountUnitStatus: model.StatusUnknown,
				InflorescenceCount: model.Some(3), Count: model.Some(3),
			},
			MissingReason: model.MissingFlowersPerUnit,
		},
		{
			Observation: model.Observation{
				RowID: 3, SpeciesCode: "HEUN", SpeciesForCalories: "HETO",
				CountUnit: model.UnitBract, BractCount: model.Some(3), Count: model.Some(3),
			},
			NumFlowersEstimate: model.Some(7),
			CaloriesPerPlant:   model.Some(28),
			FlowerSource:       model.FlowersBractKey,
		},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		inputs := map[string]string{"observations": "data/obs.csv"}
		run, err := s.CreateRun(ctx, inputs)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.Equal(t, inputs, got.Inputs)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "nonexistent-id")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed, "read observations: no such file"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "read observations: no such file", got.Error)
	})

	t.Run("UpdateRunStatusNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateRunStatus(context.Background(), "nonexistent-id", model.RunStatusComplete, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r1, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, r1.ID, model.RunStatusComplete, ""))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		done, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, r1.ID, done[0].ID)

		one, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, one, 1)
	})

	t.Run("Artifacts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)

		payload := []byte(`[{"species_code":"COSP"}]`)
		require.NoError(t, s.SaveArtifact(ctx, run.ID, model.StageFlowersPerUnit, 1, payload))

		got, err := s.GetArtifact(ctx, run.ID, model.StageFlowersPerUnit)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1, got.RowCount)
		assert.JSONEq(t, string(payload), string(got.Payload))

		err = s.SaveArtifact(ctx, run.ID, model.StageFlowersPerUnit, 1, payload)
		assert.Error(t, err, "artifacts are write-once")

		missing, err := s.GetArtifact(ctx, run.ID, model.StageBractKey)
		require.NoError(t, err)
		assert.Nil(t, missing)

		list, err := s.ListArtifacts(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, model.StageFlowersPerUnit, list[0].Stage)
		assert.Nil(t, list[0].Payload)
	})

	t.Run("PlantCalories", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.SavePlantCalories(ctx, run.ID, testPlants()))

		all, err := s.ListPlantCalories(ctx, run.ID, PlantFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, testPlants(), all, "rows round-trip in order")

		missing, err := s.ListPlantCalories(ctx, run.ID, PlantFilter{MissingOnly: true})
		require.NoError(t, err)
		require.Len(t, missing, 2)
		assert.Equal(t, model.BoundLow, missing[0].Bound)
		assert.Equal(t, model.BoundHigh, missing[1].Bound)

		heto, err := s.ListPlantCalories(ctx, run.ID, PlantFilter{Species: "HETO"})
		require.NoError(t, err)
		require.Len(t, heto, 1)
		assert.Equal(t, "HEUN", heto[0].SpeciesCode)

		limited, err := s.ListPlantCalories(ctx, run.ID, PlantFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("SavePlantCaloriesReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.SavePlantCalories(ctx, run.ID, testPlants()))
		require.NoError(t, s.SavePlantCalories(ctx, run.ID, testPlants()[:1]))

		all, err := s.ListPlantCalories(ctx, run.ID, PlantFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestNewSQLite_BadPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	require.Error(t, err)
}
