package model

// Source identifies where a flowers-per-unit figure came from.
type Source string

const (
	SourceThesis       Source = "thesis"
	SourceNotes        Source = "notes"
	SourceNectarBags   Source = "nectar_bags"
	SourceCameras      Source = "cameras"
	SourceExpert       Source = "expert"
	SourceBractKey     Source = "bract_key"
	SourceTreeBackfill Source = "tree_backfill"
)

// sourceRank orders sources for tie-breaks; lower ranks win.
var sourceRank = map[Source]int{
	SourceThesis:       0,
	SourceNotes:        1,
	SourceNectarBags:   2,
	SourceCameras:      3,
	SourceTreeBackfill: 4,
	SourceBractKey:     5,
	SourceExpert:       6,
}

// Rank returns the declaration order of s. Unknown sources rank last.
func (s Source) Rank() int {
	if r, ok := sourceRank[s]; ok {
		return r
	}
	return len(sourceRank)
}

// Summary is one source's description of flowers per unit for a species.
type Summary struct {
	SpeciesCode    string    `json:"species_code"`
	CountUnit      CountUnit `json:"count_unit"`
	Source         Source    `json:"source"`
	Median         float64   `json:"median"`
	Mean           float64   `json:"mean"`
	SD             Num       `json:"sd"`
	Min            float64   `json:"min"`
	Max            float64   `json:"max"`
	N              int       `json:"n"`
	PlantsSampled  int       `json:"plants_sampled"`
	DatesPerPlant  Num       `json:"dates_per_plant"`
	SamplingAmount Num       `json:"sampling_amount"`
	Selected       bool      `json:"selected"`
}

// FlowersPerUnit is the single selected figure for a species and unit.
type FlowersPerUnit struct {
	SpeciesCode    string    `json:"species_code"`
	CountUnit      CountUnit `json:"count_unit"`
	FlowersPerUnit float64   `json:"flowers_per_unit"`
	Source         Source    `json:"source"`
	SamplingAmount Num       `json:"sampling_amount"`
}

// UnitKey identifies a (species, count unit) pair.
type UnitKey struct {
	SpeciesCode string
	CountUnit   CountUnit
}

// Key returns the pair f was estimated for.
func (f FlowersPerUnit) Key() UnitKey {
	return UnitKey{SpeciesCode: f.SpeciesCode, CountUnit: f.CountUnit}
}

// BractKeyEntry maps a bract count to a flower count for the focal species.
type BractKeyEntry struct {
	BractCount int     `json:"bract_count"`
	Flowers    float64 `json:"flowers"`
	N          int     `json:"n"`
	Overridden bool    `json:"overridden"`
}
