package model

import "strings"

// CountUnit is the structure a raw field count refers to.
type CountUnit string

const (
	UnitNone          CountUnit = ""
	UnitFlower        CountUnit = "flower"
	UnitInflorescence CountUnit = "inflorescence"
	UnitBract         CountUnit = "bract"
	UnitTree          CountUnit = "tree"
)

// CountUnits lists every unit in column order.
var CountUnits = []CountUnit{UnitBract, UnitFlower, UnitInflorescence, UnitTree}

// ParseCountUnit reads a recorded unit, tolerating plurals and the
// abbreviations used on field sheets.
func ParseCountUnit(s string) (CountUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flower", "flowers", "flr", "fl":
		return UnitFlower, true
	case "inflorescence", "inflorescences", "infl", "inf":
		return UnitInflorescence, true
	case "bract", "bracts", "br":
		return UnitBract, true
	case "tree", "trees", "shrub", "plant":
		return UnitTree, true
	}
	return UnitNone, false
}

// UnitStatus records how a count unit was decided.
type UnitStatus string

const (
	StatusKnown   UnitStatus = "known"
	StatusAssumed UnitStatus = "assumed"
	StatusUnknown UnitStatus = "unknown"
)

// Bound tags the two variants produced for an unresolved count unit.
type Bound string

const (
	BoundNone Bound = ""
	BoundLow  Bound = "low"
	BoundHigh Bound = "high"
)

// String renders BoundNone as NA.
func (b Bound) String() string {
	if b == BoundNone {
		return "NA"
	}
	return string(b)
}

// Observation is one per-plant field record. Raw fields are set on import;
// the resolution and reshape fields are filled by the count unit stage.
type Observation struct {
	RowID          int    `json:"row_id"`
	PlantID        string `json:"plant_id,omitempty"`
	SpeciesCode    string `json:"species_code"`
	ScientificName string `json:"scientific_name,omitempty"`
	Site           string `json:"site"`
	Year           int    `json:"year"`

	Count   Num       `json:"count"`
	RawUnit CountUnit `json:"raw_unit,omitempty"`

	SpeciesForCalories string     `json:"species_for_calories"`
	CountUnit          CountUnit  `json:"count_unit"`
	CountUnitStatus    UnitStatus `json:"count_unit_status"`
	CountUnitSource    string     `json:"count_unit_source"`
	Bound              Bound      `json:"count_estimate_high_low"`

	BractCount         Num `json:"bract_count"`
	FlowerCount        Num `json:"flower_count"`
	InflorescenceCount Num `json:"inflorescence_count"`
	TreeCount          Num `json:"tree_count"`
}

// UnitCount returns the reshaped column for unit u.
func (o *Observation) UnitCount(u CountUnit) Num {
	switch u {
	case UnitBract:
		return o.BractCount
	case UnitFlower:
		return o.FlowerCount
	case UnitInflorescence:
		return o.InflorescenceCount
	case UnitTree:
		return o.TreeCount
	}
	return NA
}

// SetUnitCount sets the reshaped column for unit u.
func (o *Observation) SetUnitCount(u CountUnit, v Num) {
	switch u {
	case UnitBract:
		o.BractCount = v
	case UnitFlower:
		o.FlowerCount = v
	case UnitInflorescence:
		o.InflorescenceCount = v
	case UnitTree:
		o.TreeCount = v
	}
}

// Genus returns the first word of the scientific name.
func (o *Observation) Genus() string {
	name := strings.TrimSpace(o.ScientificName)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// FlowerSource records which rule produced a plant's flower estimate.
type FlowerSource string

const (
	FlowersDirect           FlowerSource = "direct"
	FlowersBractKey         FlowerSource = "bract_key"
	FlowersPerInflorescence FlowerSource = "flowers_per_inflorescence"
	FlowersPerTree          FlowerSource = "flowers_per_tree"
	FlowersPerBract         FlowerSource = "flowers_per_bract"
	FlowersNone             FlowerSource = ""
)

// MissingReason explains why a plant's derived values are undefined.
type MissingReason string

const (
	MissingNone              MissingReason = ""
	MissingCount             MissingReason = "no_count"
	MissingFlowersPerUnit    MissingReason = "no_flowers_per_unit"
	MissingBractKey          MissingReason = "no_bract_key"
	MissingCaloriesPerFlower MissingReason = "no_calories_per_flower"
)

// PlantCalories is the final per-plant row.
type PlantCalories struct {
	Observation
	NumFlowersEstimate Num           `json:"num_flowers_estimate"`
	CaloriesPerPlant   Num           `json:"calories_per_plant"`
	FlowerSource       FlowerSource  `json:"flower_source,omitempty"`
	MissingReason      MissingReason `json:"missing_reason,omitempty"`
}

// Missing reports whether either derived value is undefined.
func (p *PlantCalories) Missing() bool {
	return !p.NumFlowersEstimate.Valid || !p.CaloriesPerPlant.Valid
}
