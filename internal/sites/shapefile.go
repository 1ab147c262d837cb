// Package sites rolls per-plant calories up to study sites and joins the
// totals to a site layer for mapping.
package sites

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// siteFields are the attribute names accepted for the site code.
var siteFields = []string{"site", "site_code", "patch", "name"}

// Site is one feature of the site layer.
type Site struct {
	Code     string
	Geometry geom.T
	Centroid geom.Coord
}

// LoadShapefile reads the site layer from a .shp file or a .zip holding
// one. Points keep their position; polygons keep their rings and get a
// centroid. Records without a site code or usable shape are skipped.
func LoadShapefile(path string) ([]Site, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		dir, err := os.MkdirTemp("", "nectar-sites-")
		if err != nil {
			return nil, eris.Wrap(err, "sites: create extract dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		if err := extractZIP(path, dir); err != nil {
			return nil, eris.Wrapf(err, "sites: extract %s", path)
		}
		shpPath, err := findFileByExt(dir, ".shp")
		if err != nil {
			return nil, eris.Wrapf(err, "sites: %s", path)
		}
		path = shpPath
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sites: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	codeIdx := -1
	for _, name := range siteFields {
		if codeIdx = fieldIndex(reader, name); codeIdx >= 0 {
			break
		}
	}
	if codeIdx < 0 {
		return nil, eris.Errorf("sites: %s: no site field (one of %s)", path, strings.Join(siteFields, ", "))
	}

	var out []Site
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(codeIdx), "\x00"))
		g := shapeGeometry(shape)
		if code == "" || g == nil {
			skipped++
			continue
		}
		c, err := xy.Centroid(g)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, Site{Code: normalizeSite(code), Geometry: g, Centroid: c})
	}

	if skipped > 0 {
		zap.L().Debug("sites: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("sites: site layer loaded", zap.String("path", path), zap.Int("sites", len(out)))
	return out, nil
}

func normalizeSite(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// shapeGeometry converts a go-shp shape to a go-geom geometry in WGS84.
// Unsupported or empty shapes yield nil.
func shapeGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(4326)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	}
	return nil
}

// polygonToMultiPolygon treats each shapefile ring as its own polygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("sites: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("sites: skipping malformed polygon", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// fieldIndex returns the index of a named attribute, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// extractZIP flattens a ZIP archive into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}
		_, err = io.Copy(outFile, rc)
		_ = outFile.Close()
		_ = rc.Close()
		if err != nil {
			return eris.Wrapf(err, "extract %s", f.Name)
		}
	}
	return nil
}

// findFileByExt finds the first file with the given extension in dir.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
