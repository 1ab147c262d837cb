// Package taxa holds the static species reference data the pipeline joins
// against: species substitutions, morphology-based unit rules and the
// per-species constants the estimators need.
package taxa

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/nectar-cli/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// LiteratureNectar is a published per-flower nectar figure.
type LiteratureNectar struct {
	VolumeUL          float64 `yaml:"volume_ul"`
	ConcentrationBrix float64 `yaml:"concentration_brix"`
	Citation          string  `yaml:"citation"`
}

// Catalog is the species reference table.
type Catalog struct {
	FocalSpecies          string                      `yaml:"focal_species"`
	BractGenera           []string                    `yaml:"bract_genera"`
	FlowerOnly            []string                    `yaml:"flower_only"`
	InflorescenceOnly     []string                    `yaml:"inflorescence_only"`
	SpeciesForCalories    map[string]string           `yaml:"species_for_calories"`
	NectarSubstitutes     map[string]string           `yaml:"nectar_substitutes"`
	LiteratureNectar      map[string]LiteratureNectar `yaml:"literature_nectar"`
	InflorescencesPerTree map[string]float64          `yaml:"inflorescences_per_tree"`
	BagSpecies            []string                    `yaml:"bag_species"`

	flowerOnly  map[string]bool
	inflOnly    map[string]bool
	bagSpecies  map[string]bool
	bractGenera map[string]bool
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxa: read catalog %s", path)
	}
	return Parse(data)
}

// Parse decodes catalog YAML. The document has a top-level "catalog" key.
func Parse(data []byte) (*Catalog, error) {
	var wrapper struct {
		Catalog Catalog `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "taxa: parse catalog")
	}
	c := &wrapper.Catalog
	c.normalize()
	return c, nil
}

// NormalizeCode canonicalizes a species code typed on a field sheet.
func NormalizeCode(code string) string {
	code = norm.NFC.String(strings.TrimSpace(code))
	// A Caser is stateful, so each call gets its own.
	return cases.Upper(language.Und).String(code)
}

func normalizeGenus(g string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(g)))
}

func codeSet(codes []string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[NormalizeCode(c)] = true
	}
	return m
}

func normalizeMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[NormalizeCode(k)] = NormalizeCode(v)
	}
	return out
}

func (c *Catalog) normalize() {
	c.FocalSpecies = NormalizeCode(c.FocalSpecies)
	c.flowerOnly = codeSet(c.FlowerOnly)
	c.inflOnly = codeSet(c.InflorescenceOnly)
	c.bagSpecies = codeSet(c.BagSpecies)
	c.bractGenera = make(map[string]bool, len(c.BractGenera))
	for _, g := range c.BractGenera {
		c.bractGenera[normalizeGenus(g)] = true
	}
	c.SpeciesForCalories = normalizeMap(c.SpeciesForCalories)
	c.NectarSubstitutes = normalizeMap(c.NectarSubstitutes)

	lit := make(map[string]LiteratureNectar, len(c.LiteratureNectar))
	for k, v := range c.LiteratureNectar {
		lit[NormalizeCode(k)] = v
	}
	c.LiteratureNectar = lit

	ipt := make(map[string]float64, len(c.InflorescencesPerTree))
	for k, v := range c.InflorescencesPerTree {
		ipt[NormalizeCode(k)] = v
	}
	c.InflorescencesPerTree = ipt
}

// CaloriesSpecies maps an observed code to the species whose data stands in
// for it. Unmapped codes stand for themselves.
func (c *Catalog) CaloriesSpecies(code string) string {
	code = NormalizeCode(code)
	if to, ok := c.SpeciesForCalories[code]; ok {
		return to
	}
	return code
}

// IsFocal reports whether code is the bract-counted focal species. A nil
// catalog has no focal species.
func (c *Catalog) IsFocal(code string) bool {
	return c != nil && c.FocalSpecies != "" && NormalizeCode(code) == c.FocalSpecies
}

// MorphologyUnit returns the only plausible count unit for a species, with
// the justification recorded as count_unit_source.
func (c *Catalog) MorphologyUnit(code, genus string) (model.CountUnit, string, bool) {
	code = NormalizeCode(code)
	switch {
	case c.IsFocal(code):
		return model.UnitBract, "focal species counted by bract", true
	case genus != "" && c.bractGenera[normalizeGenus(genus)]:
		return model.UnitBract, "genus " + genus + " counted by bract under protocol", true
	case c.flowerOnly[code]:
		return model.UnitFlower, "no discrete inflorescence", true
	case c.inflOnly[code]:
		return model.UnitInflorescence, "inflorescence is the only practical count target", true
	}
	return model.UnitNone, "", false
}

// NectarSubstitute returns the congeneric stand-in for a species' nectar.
func (c *Catalog) NectarSubstitute(code string) (string, bool) {
	to, ok := c.NectarSubstitutes[NormalizeCode(code)]
	return to, ok
}

// Literature returns published nectar figures for code.
func (c *Catalog) Literature(code string) (LiteratureNectar, bool) {
	lit, ok := c.LiteratureNectar[NormalizeCode(code)]
	return lit, ok
}

// TreeSpecies returns the species with a measured inflorescences-per-tree
// figure, sorted.
func (c *Catalog) TreeSpecies() []string {
	out := make([]string, 0, len(c.InflorescencesPerTree))
	for code := range c.InflorescencesPerTree {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// IsBagSpecies reports whether nectar-bag samples of code measure a single
// inflorescence with daily flower turnover.
func (c *Catalog) IsBagSpecies(code string) bool {
	return c.bagSpecies[NormalizeCode(code)]
}
