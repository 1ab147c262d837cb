package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCountUnit(t *testing.T) {
	tests := []struct {
		in   string
		want CountUnit
		ok   bool
	}{
		{"flower", UnitFlower, true},
		{"Flowers", UnitFlower, true},
		{"infl", UnitInflorescence, true},
		{"inflorescences", UnitInflorescence, true},
		{"bracts", UnitBract, true},
		{"tree", UnitTree, true},
		{"", UnitNone, false},
		{"NA", UnitNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseCountUnit(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestObservation_UnitCount(t *testing.T) {
	var o Observation
	for i, u := range CountUnits {
		o.SetUnitCount(u, Some(float64(i+1)))
	}
	assert.Equal(t, Some(1), o.BractCount)
	assert.Equal(t, Some(2), o.FlowerCount)
	assert.Equal(t, Some(3), o.InflorescenceCount)
	assert.Equal(t, Some(4), o.TreeCount)
	assert.Equal(t, Some(3), o.UnitCount(UnitInflorescence))
	assert.Equal(t, NA, o.UnitCount(UnitNone))
}

func TestObservation_Genus(t *testing.T) {
	o := Observation{ScientificName: "Heliconia tortuosa"}
	assert.Equal(t, "Heliconia", o.Genus())
	o.ScientificName = "Costus"
	assert.Equal(t, "Costus", o.Genus())
}

func TestBound_String(t *testing.T) {
	assert.Equal(t, "NA", BoundNone.String())
	assert.Equal(t, "high", BoundHigh.String())
}

func TestSource_Rank(t *testing.T) {
	assert.Less(t, SourceThesis.Rank(), SourceNotes.Rank())
	assert.Less(t, SourceNectarBags.Rank(), SourceCameras.Rank())
	assert.Less(t, SourceCameras.Rank(), SourceExpert.Rank())
	assert.Equal(t, len(sourceRank), Source("other").Rank())
}

func TestPlantCalories_Missing(t *testing.T) {
	p := PlantCalories{NumFlowersEstimate: Some(0), CaloriesPerPlant: Some(0)}
	assert.False(t, p.Missing())
	p.CaloriesPerPlant = NA
	assert.True(t, p.Missing())
}
