package model

// NectarDataSource records where a species' nectar figures came from.
type NectarDataSource string

const (
	NectarNone             NectarDataSource = ""
	NectarField            NectarDataSource = "field"
	NectarFieldSubstituted NectarDataSource = "field_substituted"
	NectarLiterature       NectarDataSource = "literature"
)

// String renders NectarNone as NA.
func (s NectarDataSource) String() string {
	if s == NectarNone {
		return "NA"
	}
	return string(s)
}

// CaloriesPerFlower is the converted nectar reward for one canonical species.
type CaloriesPerFlower struct {
	SpeciesCode       string           `json:"species_code"`
	CaloriesPerFlower Num              `json:"calories_per_flower"`
	DataSource        NectarDataSource `json:"data_source"`
	VolumeUL          Num              `json:"volume_ul"`
	ConcentrationBrix Num              `json:"concentration_brix"`
	SubstitutedFrom   string           `json:"substituted_from,omitempty"`
}
