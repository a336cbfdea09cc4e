package grid

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// Overlay builds a GeoJSON feature collection of the quadrant and zone
// rectangles for a grid configuration. The dashboard draws these as chart
// overlays; coordinates are plain grid units (satisfaction = x, loyalty = y).
func Overlay(sat, loy Scale, mid model.Midpoint, zones *Zones, showSpecialZones, showNearApostles bool) *geojson.FeatureCollection {
	satMin, satMax := float64(sat.Min), float64(sat.Max)
	loyMin, loyMax := float64(loy.Min), float64(loy.Max)

	features := []*geojson.Feature{
		regionFeature(model.QuadrantLoyalists, "quadrant", mid.Sat, mid.Loy, satMax, loyMax),
		regionFeature(model.QuadrantMercenaries, "quadrant", mid.Sat, loyMin, satMax, mid.Loy),
		regionFeature(model.QuadrantHostages, "quadrant", satMin, mid.Loy, mid.Sat, loyMax),
		regionFeature(model.QuadrantDefectors, "quadrant", satMin, loyMin, mid.Sat, mid.Loy),
	}

	if showSpecialZones && zones != nil {
		features = append(features,
			boundsFeature(model.QuadrantApostles, zones.ApostlesBounds()),
			boundsFeature(model.QuadrantTerrorists, zones.TerroristsBounds()),
		)
		if showNearApostles {
			features = append(features, boundsFeature(model.QuadrantNearApostles, zones.NearApostlesBounds()))
		}
	}

	return &geojson.FeatureCollection{Features: features}
}

func boundsFeature(region model.Quadrant, b *geom.Bounds) *geojson.Feature {
	return regionFeature(region, "zone", b.Min(0), b.Min(1), b.Max(0), b.Max(1))
}

func regionFeature(region model.Quadrant, kind string, minX, minY, maxX, maxY float64) *geojson.Feature {
	ring := []float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}
	poly := geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})

	return &geojson.Feature{
		ID:       string(region),
		Geometry: poly,
		Properties: map[string]any{
			"region": string(region),
			"kind":   kind,
		},
	}
}
