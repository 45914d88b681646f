package services

import (
	"math"
	"sort"

	"tour-server/models"
)

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b models.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h a hair outside [0,1] for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// NearbyPOI is a POI paired with its distance from the queried point.
type NearbyPOI struct {
	POI      models.POI `json:"poi"`
	Distance float64    `json:"distance"`
}

type GeoService struct {
	pois []models.POI // in catalog order
}

func NewGeoService(pois []models.POI) *GeoService {
	return &GeoService{pois: pois}
}

// FindNearbyPOIs returns every POI within radius meters of at, closest first.
func (s *GeoService) FindNearbyPOIs(at models.Coordinates, radius float64) []NearbyPOI {
	results := []NearbyPOI{}
	for _, poi := range s.pois {
		d := Distance(at, poi.Location)
		if d <= radius {
			results = append(results, NearbyPOI{POI: poi, Distance: d})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results
}

// FirstWithinRadius scans POIs in catalog order and returns the first whose
// geofence contains at and for which skip returns false.
func (s *GeoService) FirstWithinRadius(at models.Coordinates, skip func(id string) bool) (models.POI, bool) {
	for _, poi := range s.pois {
		if Distance(at, poi.Location) > poi.Radius {
			continue
		}
		if skip != nil && skip(poi.ID) {
			continue
		}
		return poi, true
	}
	return models.POI{}, false
}
