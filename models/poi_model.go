package models

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" bson:"lat"`
	Lon float64 `json:"lon" yaml:"lon" bson:"lon"`
}

// POI is a narrated stop on the tour. Description and Audio are keyed by
// language code; Audio and Image hold bare filenames until resolved.
type POI struct {
	ID          string            `json:"id" yaml:"id" bson:"_id"`
	Name        string            `json:"name" yaml:"name" bson:"name"`
	Location    Coordinates       `json:"location" yaml:"location" bson:"location"`
	Radius      float64           `json:"radius" yaml:"radius" bson:"radius"`
	Description map[string]string `json:"description" yaml:"description" bson:"description"`
	Audio       map[string]string `json:"audio" yaml:"audio" bson:"audio"`
	Image       string            `json:"image" yaml:"image" bson:"image"`
}

// Advertisement shares a POI's content fields but is not bound to a place.
type Advertisement struct {
	ID          string            `json:"id" yaml:"id" bson:"_id"`
	Name        string            `json:"name" yaml:"name" bson:"name"`
	Description map[string]string `json:"description" yaml:"description" bson:"description"`
	Audio       map[string]string `json:"audio" yaml:"audio" bson:"audio"`
	Image       string            `json:"image" yaml:"image" bson:"image"`
}

// Catalog is the immutable content set loaded at startup. POI order is the
// order the simulated vehicle visits them.
type Catalog struct {
	Languages []string        `json:"languages" yaml:"languages"`
	POIs      []POI           `json:"pois" yaml:"pois"`
	Ads       []Advertisement `json:"ads" yaml:"ads"`
	// Route is the coordinate path walked by the geofence policy. When empty
	// the POI locations are used.
	Route []Coordinates `json:"route,omitempty" yaml:"route,omitempty"`
}

// RoutePoints returns the path the geofence simulator should walk.
func (c *Catalog) RoutePoints() []Coordinates {
	if len(c.Route) > 0 {
		out := make([]Coordinates, len(c.Route))
		copy(out, c.Route)
		return out
	}
	out := make([]Coordinates, 0, len(c.POIs))
	for _, p := range c.POIs {
		out = append(out, p.Location)
	}
	return out
}
