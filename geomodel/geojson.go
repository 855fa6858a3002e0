package geomodel

import (
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection converts the filled slots of the list into GeoJSON points.
func (l *AirportList) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < l.Len(); i++ {
		fc.Append(l[i].Feature())
	}
	return fc
}

func (a NearestAirport) Feature() *geojson.Feature {
	f := geojson.NewFeature(a.Location.Point())
	f.Properties["code"] = a.Code
	f.Properties["name"] = a.Name
	f.Properties["state"] = a.State
	f.Properties["distance"] = a.Distance
	return f
}
