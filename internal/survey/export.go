package survey

import (
	"strconv"

	"github.com/sells-group/nectar-cli/internal/model"
)

// Rendered is one output table in column-contract order.
type Rendered struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ObservationColumns is the resolved observation table contract.
var ObservationColumns = []string{
	"row_id", "plant_id", "species_code", "scientific_name", "site", "year",
	"species_for_calories", "count_unit", "count_unit_status", "count_unit_source",
	"count_estimate_high_low", "bract_count", "flower_count", "inflorescence_count", "tree_count",
}

func observationCells(o model.Observation) []string {
	status := string(o.CountUnitStatus)
	if status == "" {
		status = "NA"
	}
	unit := string(o.CountUnit)
	if unit == "" {
		unit = "NA"
	}
	return []string{
		strconv.Itoa(o.RowID),
		o.PlantID,
		o.SpeciesCode,
		o.ScientificName,
		o.Site,
		yearCell(o.Year),
		o.SpeciesForCalories,
		unit,
		status,
		o.CountUnitSource,
		o.Bound.String(),
		o.BractCount.String(),
		o.FlowerCount.String(),
		o.InflorescenceCount.String(),
		o.TreeCount.String(),
	}
}

func yearCell(y int) string {
	if y == 0 {
		return "NA"
	}
	return strconv.Itoa(y)
}

// RenderObservations renders resolved observations.
func RenderObservations(obs []model.Observation) Rendered {
	rows := make([][]string, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, observationCells(o))
	}
	return Rendered{Name: string(model.StageCountUnits), Header: ObservationColumns, Rows: rows}
}

// RenderFlowersPerUnit renders the selected flowers-per-unit table.
func RenderFlowersPerUnit(fpu []model.FlowersPerUnit) Rendered {
	rows := make([][]string, 0, len(fpu))
	for _, f := range fpu {
		rows = append(rows, []string{
			f.SpeciesCode,
			string(f.CountUnit),
			formatFloat(f.FlowersPerUnit),
			string(f.Source),
			f.SamplingAmount.String(),
		})
	}
	return Rendered{
		Name:   string(model.StageFlowersPerUnit),
		Header: []string{"species_code", "count_unit", "flowers_per_unit", "source", "sampling_amount"},
		Rows:   rows,
	}
}

// RenderCandidates renders every source summary with its selection flag.
func RenderCandidates(cands []model.Summary) Rendered {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, []string{
			c.SpeciesCode,
			string(c.CountUnit),
			string(c.Source),
			formatFloat(c.Median),
			formatFloat(c.Mean),
			c.SD.String(),
			formatFloat(c.Min),
			formatFloat(c.Max),
			strconv.Itoa(c.N),
			strconv.Itoa(c.PlantsSampled),
			datesCell(c.DatesPerPlant),
			c.SamplingAmount.String(),
			strconv.FormatBool(c.Selected),
		})
	}
	return Rendered{
		Name: string(model.StageFlowerCandidates),
		Header: []string{
			"species_code", "count_unit", "source", "median", "mean", "sd", "min", "max", "n",
			"plants_sampled", "dates_per_plant", "sampling_amount", "selected",
		},
		Rows: rows,
	}
}

// datesCell renders untracked sampling dates as "unknown" rather than NA.
func datesCell(n model.Num) string {
	if !n.Valid {
		return "unknown"
	}
	return n.String()
}

// RenderBractKey renders the bract-to-flower key.
func RenderBractKey(key []model.BractKeyEntry) Rendered {
	rows := make([][]string, 0, len(key))
	for _, k := range key {
		rows = append(rows, []string{
			strconv.Itoa(k.BractCount),
			formatFloat(k.Flowers),
			strconv.Itoa(k.N),
			strconv.FormatBool(k.Overridden),
		})
	}
	return Rendered{
		Name:   string(model.StageBractKey),
		Header: []string{"bract_count", "flowers", "n", "overridden"},
		Rows:   rows,
	}
}

// RenderCaloriesPerFlower renders the per-species nectar reward table.
func RenderCaloriesPerFlower(cpf []model.CaloriesPerFlower) Rendered {
	rows := make([][]string, 0, len(cpf))
	for _, c := range cpf {
		rows = append(rows, []string{
			c.SpeciesCode,
			c.CaloriesPerFlower.String(),
			c.DataSource.String(),
			c.VolumeUL.String(),
			c.ConcentrationBrix.String(),
			c.SubstitutedFrom,
		})
	}
	return Rendered{
		Name: string(model.StageCaloriesPerFlower),
		Header: []string{
			"species_code", "calories_per_flower", "data_source", "volume_ul", "concentration_brix", "substituted_from",
		},
		Rows: rows,
	}
}

// PlantColumns is the final table contract: observation columns plus the
// derived estimates.
var PlantColumns = append(append([]string{}, ObservationColumns...),
	"num_flowers_estimate", "calories_per_plant", "flower_source")

// RenderPlantCalories renders the final per-plant table.
func RenderPlantCalories(plants []model.PlantCalories) Rendered {
	rows := make([][]string, 0, len(plants))
	for _, p := range plants {
		rows = append(rows, plantCells(p))
	}
	return Rendered{Name: string(model.StagePlantCalories), Header: PlantColumns, Rows: rows}
}

// RenderMissing renders the rows whose derived values are undefined.
func RenderMissing(plants []model.PlantCalories) Rendered {
	var rows [][]string
	for _, p := range plants {
		if !p.Missing() {
			continue
		}
		rows = append(rows, append(plantCells(p), string(p.MissingReason)))
	}
	return Rendered{
		Name:   string(model.StagePlantCalories) + "_missing",
		Header: append(append([]string{}, PlantColumns...), "missing_reason"),
		Rows:   rows,
	}
}

func plantCells(p model.PlantCalories) []string {
	src := string(p.FlowerSource)
	if src == "" {
		src = "NA"
	}
	return append(observationCells(p.Observation),
		p.NumFlowersEstimate.String(),
		p.CaloriesPerPlant.String(),
		src,
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
