package geomodel

import (
	"github.com/paulmach/orb"
	"github.com/royalcat/airplaces/greatcircle"
)

// NResults is the fixed number of airports returned for a nearest query.
const NResults = 5

type Location struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DistanceTo returns the great-circle distance in statute miles.
func (l Location) DistanceTo(other Location) float64 {
	return greatcircle.Distance(l.Lat, l.Lon, other.Lat, other.Lon)
}

// Point converts to orb's lon, lat order.
func (l Location) Point() orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

type Airport struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	State string `json:"state"`
	Location
}

type City struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Location
}

type NearestAirport struct {
	Airport
	Distance float64 `json:"distance"` // statute miles
}

// AirportList is the fixed-size answer of a nearest airports query.
// Unfilled slots are zero valued.
type AirportList [NResults]NearestAirport

// Len returns the number of filled slots.
func (l *AirportList) Len() int {
	for i := range l {
		if l[i].Code == "" {
			return i
		}
	}
	return len(l)
}

type CityMatches struct {
	Ambiguous bool   `json:"ambiguous"`
	Places    []City `json:"places"`
}

type PlaceAirports struct {
	Place    City        `json:"place"`
	Airports AirportList `json:"airports"`
}
