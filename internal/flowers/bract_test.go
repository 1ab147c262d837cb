package flowers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nectar-cli/internal/model"
)

func focalObs(id int, bracts, flowers float64) model.Observation {
	return model.Observation{
		RowID:       id,
		SpeciesCode: "HETO",
		BractCount:  model.Some(bracts),
		FlowerCount: model.Some(flowers),
	}
}

func isHETO(code string) bool { return code == "HETO" }

func TestBuildBractKey(t *testing.T) {
	obs := []model.Observation{
		focalObs(1, 2, 4),
		focalObs(2, 2, 6),
		focalObs(3, 3, 7),
		focalObs(4, 10, 12),
		focalObs(4, 10, 12),
		{RowID: 5, SpeciesCode: "HELA", BractCount: model.Some(2), FlowerCount: model.Some(100)},
		{RowID: 6, SpeciesCode: "HETO", BractCount: model.Some(5)},
	}
	k := BuildBractKey(obs, isHETO, 9, 2)

	require.Len(t, k.Entries, 4)
	assert.Equal(t, model.BractKeyEntry{BractCount: 0, Flowers: 0, N: 0}, k.Entries[0])
	assert.Equal(t, model.BractKeyEntry{BractCount: 2, Flowers: 5, N: 2}, k.Entries[1])
	assert.Equal(t, model.BractKeyEntry{BractCount: 3, Flowers: 7, N: 1}, k.Entries[2])
	assert.Equal(t, model.BractKeyEntry{BractCount: 10, Flowers: 2, N: 1, Overridden: true}, k.Entries[3])
}

func TestBractKey_Lookup(t *testing.T) {
	k := BuildBractKey([]model.Observation{focalObs(1, 2, 4)}, isHETO, 9, 2)

	assert.Equal(t, model.Some(4), k.Lookup(model.Some(2)))
	assert.Equal(t, model.Some(0), k.Lookup(model.Some(0)))
	assert.Equal(t, model.Some(2), k.Lookup(model.Some(15)), "above threshold uses the floor")
	assert.False(t, k.Lookup(model.Some(5)).Valid, "unobserved bract count")
	assert.False(t, k.Lookup(model.NA).Valid)

	var nilKey *BractKey
	assert.False(t, nilKey.Lookup(model.Some(2)).Valid)
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3.0, median([]float64{5, 1, 3}), 1e-9)
	assert.InDelta(t, 2.5, median([]float64{4, 1, 3, 2}), 1e-9)
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input is not reordered")
}

func TestSummarizers(t *testing.T) {
	t.Run("thesis dates unknown", func(t *testing.T) {
		s := SummarizeThesis([]model.ThesisCount{
			{SpeciesCode: "A", NumFlowers: n(3), Flowering: true},
		})
		require.Len(t, s, 1)
		assert.False(t, s[0].DatesPerPlant.Valid)
		assert.False(t, s[0].SD.Valid, "single value has no spread")
		assert.Equal(t, n(1), s[0].SamplingAmount)
	})

	t.Run("notes per tree", func(t *testing.T) {
		s := SummarizeNotes([]model.NoteCount{
			{SpeciesCode: "ERPO", NumFlowers: n(300), NumTrees: n(2)},
			{SpeciesCode: "ERPO", NumFlowers: n(0), NumTrees: n(1)},
			{SpeciesCode: "ERPO", NumFlowers: n(10)},
		})
		require.Len(t, s, 1)
		assert.Equal(t, model.UnitTree, s[0].CountUnit)
		assert.InDelta(t, 150.0, s[0].Median, 1e-9)
		assert.Equal(t, 1, s[0].PlantsSampled)
	})

	t.Run("cameras single inflorescence only", func(t *testing.T) {
		s := SummarizeCameras([]model.CameraCount{
			{SpeciesCode: "RASP", PlantID: "c1", Date: "d1", NumFlowers: n(4), SingleInflorescence: true},
			{SpeciesCode: "RASP", PlantID: "c1", Date: "d2", NumFlowers: n(0), SingleInflorescence: true},
			{SpeciesCode: "RASP", PlantID: "c1", Date: "d3", NumFlowers: n(2), SingleInflorescence: true},
			{SpeciesCode: "RASP", PlantID: "c2", Date: "d1", NumFlowers: n(50), SingleInflorescence: false},
		})
		require.Len(t, s, 1)
		assert.InDelta(t, 3.0, s[0].Mean, 1e-9)
		assert.Equal(t, 1, s[0].PlantsSampled)
		assert.InDelta(t, 2.0, s[0].SamplingAmount.V, 1e-9)
		assert.InDelta(t, 3.0, Central(s[0]), 1e-9)
	})

	t.Run("expert first wins", func(t *testing.T) {
		s := SummarizeExpert([]model.ExpertEstimate{
			{SpeciesCode: "A", CountUnit: model.UnitFlower, FlowersPerUnit: 1},
			{SpeciesCode: "A", CountUnit: model.UnitFlower, FlowersPerUnit: 2},
		})
		require.Len(t, s, 1)
		assert.False(t, s[0].SamplingAmount.Valid)
		assert.InDelta(t, 1.0, Central(s[0]), 1e-9)
	})
}
