package model

// ThesisCount is one dedicated per-inflorescence flower tally.
type ThesisCount struct {
	SpeciesCode     string `json:"species_code"`
	InflorescenceID string `json:"inflorescence_id"`
	NumFlowers      Num    `json:"num_flowers"`
	Flowering       bool   `json:"flowering"`
}

// NoteCount is an opportunistic survey note with flower and inflorescence
// (or tree) totals for one plant.
type NoteCount struct {
	SpeciesCode       string `json:"species_code"`
	PlantID           string `json:"plant_id"`
	NumFlowers        Num    `json:"num_flowers"`
	NumInflorescences Num    `json:"num_inflorescences"`
	NumTrees          Num    `json:"num_trees"`
}

// BagSample is the flower total extracted from one nectar bag on one date.
type BagSample struct {
	SpeciesCode string `json:"species_code"`
	PlantID     string `json:"plant_id"`
	Date        string `json:"date"`
	NumFlowers  Num    `json:"num_flowers"`
}

// CameraCount is the field-recorded flower total for one camera day.
type CameraCount struct {
	SpeciesCode         string `json:"species_code"`
	CameraID            string `json:"camera_id"`
	PlantID             string `json:"plant_id"`
	Date                string `json:"date"`
	NumFlowers          Num    `json:"num_flowers"`
	SingleInflorescence bool   `json:"single_inflorescence"`
}

// ExpertEstimate is a point value with no sampling information.
type ExpertEstimate struct {
	SpeciesCode    string    `json:"species_code"`
	CountUnit      CountUnit `json:"count_unit"`
	FlowersPerUnit float64   `json:"flowers_per_unit"`
	Expert         string    `json:"expert,omitempty"`
}

// NectarSample is one per-flower nectar measurement.
type NectarSample struct {
	SpeciesCode       string `json:"species_code"`
	PlantID           string `json:"plant_id"`
	Date              string `json:"date"`
	VolumeUL          Num    `json:"volume_ul"`
	ConcentrationBrix Num    `json:"concentration_brix"`
}
