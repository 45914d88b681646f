package handlers

import (
	"math"
	"net/http"
	"strconv"

	"tour-server/middleware"
	"tour-server/models"
	"tour-server/services"
	"tour-server/utils/errors"
)

type POIHandler struct {
	geoService *services.GeoService
	catalog    *models.Catalog
	resolver   *services.ContentResolver
}

type POIListResponse struct {
	Languages []string                 `json:"languages"`
	POIs      []models.ResolvedContent `json:"pois"`
	Count     int                      `json:"count"`
}

type NearbyPOI struct {
	models.ResolvedContent
	Location models.Coordinates `json:"location"`
	Distance float64            `json:"distance"`
}

type NearbyPOIResponse struct {
	NearbyPOIs []NearbyPOI `json:"nearby_pois"`
	Count      int         `json:"count"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	Radius     float64     `json:"radius"`
}

func NewPOIHandler(geoService *services.GeoService, catalog *models.Catalog, resolver *services.ContentResolver) *POIHandler {
	return &POIHandler{geoService: geoService, catalog: catalog, resolver: resolver}
}

// ListPOIs returns the tour's POIs in visiting order, fully resolved.
func (h *POIHandler) ListPOIs(w http.ResponseWriter, r *http.Request) {
	resp := POIListResponse{Languages: h.resolver.Languages(), POIs: []models.ResolvedContent{}}
	for _, poi := range h.catalog.POIs {
		content, err := h.resolver.ResolvePOI(poi)
		if err != nil {
			middleware.WriteError(w, errors.Wrap(err, "CATALOG_ERROR", "Catalog entry could not be resolved", http.StatusInternalServerError))
			return
		}
		resp.POIs = append(resp.POIs, content)
	}
	resp.Count = len(resp.POIs)
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// parseFinite accepts only finite numbers; ParseFloat alone lets NaN and
// Inf through.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (h *POIHandler) GetNearbyPOIs(w http.ResponseWriter, r *http.Request) {
	lat, ok := parseFinite(r.URL.Query().Get("lat"))
	if !ok || lat < -90 || lat > 90 {
		middleware.WriteError(w, errors.ErrInvalidInput.WithDetails("lat must be a number in [-90, 90]"))
		return
	}
	lon, ok := parseFinite(r.URL.Query().Get("lon"))
	if !ok || lon < -180 || lon > 180 {
		middleware.WriteError(w, errors.ErrInvalidInput.WithDetails("lon must be a number in [-180, 180]"))
		return
	}
	radius, ok := parseFinite(r.URL.Query().Get("radius"))
	if !ok || radius < 0 {
		middleware.WriteError(w, errors.ErrInvalidInput.WithDetails("radius must be a non-negative number of meters"))
		return
	}

	at := models.Coordinates{Lat: lat, Lon: lon}
	response := NearbyPOIResponse{NearbyPOIs: []NearbyPOI{}, Lat: lat, Lon: lon, Radius: radius}
	for _, found := range h.geoService.FindNearbyPOIs(at, radius) {
		content, err := h.resolver.ResolvePOI(found.POI)
		if err != nil {
			middleware.WriteError(w, errors.Wrap(err, "CATALOG_ERROR", "Catalog entry could not be resolved", http.StatusInternalServerError))
			return
		}
		response.NearbyPOIs = append(response.NearbyPOIs, NearbyPOI{
			ResolvedContent: content,
			Location:        found.POI.Location,
			Distance:        found.Distance,
		})
	}
	response.Count = len(response.NearbyPOIs)
	middleware.WriteJSON(w, http.StatusOK, response)
}
