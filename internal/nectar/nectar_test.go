package nectar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nectar-cli/internal/model"
	"github.com/sells-group/nectar-cli/internal/taxa"
)

func TestRoundBrix(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5.0, 5.0},
		{5.2, 5.0},
		{5.3, 5.5},
		{5.25, 5.0},
		{5.75, 6.0},
		{10.0, 10.0},
		{10.4, 10.0},
		{10.6, 11.0},
		{12.5, 12.0},
		{13.5, 14.0},
		{20.0, 20.0},
		{21.0, 20.0},
		{23.0, 24.0},
		{24.9, 24.0},
		{25.1, 26.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundBrix(tt.in), 1e-12, "brix %v", tt.in)
	}
}

func TestCaloriesPerFlower(t *testing.T) {
	got := CaloriesPerFlower(model.Some(20), model.Some(5), DefaultKcalPerGram)
	require.True(t, got.Valid)
	assert.InDelta(t, 4.01092, got.V, 1e-9)

	again := CaloriesPerFlower(model.Some(20), model.Some(5), DefaultKcalPerGram)
	assert.Equal(t, math.Float64bits(got.V), math.Float64bits(again.V), "pure conversion")

	assert.False(t, CaloriesPerFlower(model.NA, model.Some(5), DefaultKcalPerGram).Valid)
	assert.False(t, CaloriesPerFlower(model.Some(20), model.NA, DefaultKcalPerGram).Valid)
	assert.False(t, CaloriesPerFlower(model.Some(20), model.Some(90), DefaultKcalPerGram).Valid, "outside table")
	assert.Equal(t, model.Some(0), CaloriesPerFlower(model.Some(0), model.Some(5), DefaultKcalPerGram))
}

func TestSugarGramsPerLiter(t *testing.T) {
	assert.Equal(t, model.Some(216.2), SugarGramsPerLiter(20))
	assert.Equal(t, model.Some(239.8), SugarGramsPerLiter(22.9))
	assert.False(t, SugarGramsPerLiter(-3).Valid)
}

const catalogYAML = `
catalog:
  nectar_substitutes:
    HELA: HETO
    HERO: HETO
    XXSP: NONE
  literature_nectar:
    MAAR: {volume_ul: 8.1, concentration_brix: 21, citation: Stiles 1981}
`

func TestConvert(t *testing.T) {
	cat, err := taxa.Parse([]byte(catalogYAML))
	require.NoError(t, err)

	samples := []model.NectarSample{
		{SpeciesCode: "HETO", VolumeUL: model.Some(18), ConcentrationBrix: model.Some(24)},
		{SpeciesCode: "HETO", VolumeUL: model.Some(22), ConcentrationBrix: model.Some(24)},
		{SpeciesCode: "HERO", VolumeUL: model.NA, ConcentrationBrix: model.Some(30)},
	}
	rows := NewConverter(cat, 0).Convert(samples, []string{"HELA", "MAAR", "XXSP", "HETO"})
	table := NewTable(rows)
	require.Len(t, rows, 5)

	heto := table["HETO"]
	assert.Equal(t, model.NectarField, heto.DataSource)
	assert.InDelta(t, 263.8*20e-6*3.94*1000, heto.CaloriesPerFlower.V, 1e-9)

	hela := table["HELA"]
	assert.Equal(t, model.NectarFieldSubstituted, hela.DataSource)
	assert.Equal(t, "HETO", hela.SubstitutedFrom)
	assert.Equal(t, heto.CaloriesPerFlower, hela.CaloriesPerFlower)

	hero := table["HERO"]
	assert.Equal(t, model.NectarFieldSubstituted, hero.DataSource, "missing volume taken from congener")
	assert.Equal(t, model.Some(20), hero.VolumeUL)
	assert.Equal(t, model.Some(30), hero.ConcentrationBrix)

	maar := table["MAAR"]
	assert.Equal(t, model.NectarLiterature, maar.DataSource)
	assert.True(t, maar.CaloriesPerFlower.Valid)

	xxsp := table["XXSP"]
	assert.Equal(t, model.NectarNone, xxsp.DataSource)
	assert.False(t, xxsp.CaloriesPerFlower.Valid)
	assert.Equal(t, "", xxsp.SubstitutedFrom)

	assert.False(t, table.Lookup("ZZZZ").Valid)
	assert.Equal(t, heto.CaloriesPerFlower, table.Lookup("HETO"))

	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].SpeciesCode, rows[i].SpeciesCode)
	}
}
