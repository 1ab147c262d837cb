package sites

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// FeatureCollection joins summaries to the site layer, one feature per site
// and year. Summaries whose site is not in the layer are left out.
func FeatureCollection(summaries []Summary, layer []Site) *geojson.FeatureCollection {
	bySite := make(map[string]Site, len(layer))
	for _, s := range layer {
		if _, dup := bySite[s.Code]; !dup {
			bySite[s.Code] = s
		}
	}

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(summaries))}
	var unmatched []string
	for _, s := range summaries {
		site, ok := bySite[s.Site]
		if !ok {
			unmatched = append(unmatched, s.Site)
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.Site + "-" + strconv.Itoa(s.Year),
			Geometry: site.Geometry,
			Properties: map[string]any{
				"site":          s.Site,
				"year":          s.Year,
				"plants":        s.Plants,
				"defined":       s.Defined,
				"missing":       s.Missing,
				"calories_low":  s.CaloriesLow,
				"calories_high": s.CaloriesHigh,
				"centroid_x":    site.Centroid[0],
				"centroid_y":    site.Centroid[1],
			},
		})
	}

	if len(unmatched) > 0 {
		zap.L().Warn("sites: summaries without a site feature",
			zap.Strings("sites", unmatched),
		)
	}
	return fc
}

// WriteGeoJSON writes fc to path, creating parent directories.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "sites: create directory for %s", path)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "sites: encode geojson")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "sites: write %s", path)
}
