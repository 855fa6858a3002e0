// Package geocoder answers nearest airport and place queries over the loaded indexes.
package geocoder

import (
	"cmp"
	"context"
	"slices"

	"github.com/royalcat/airplaces/citytrie"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/royalcat/airplaces/kdtree"
)

// AirportFinder returns the airports closest to a location.
type AirportFinder interface {
	NearestAirports(ctx context.Context, loc geomodel.Location) (geomodel.AirportList, error)
}

var (
	_ AirportFinder = (*Airports)(nil)
	_ AirportFinder = (*RemoteAirports)(nil)
)

// Airports is safe for concurrent use.
type Airports struct {
	tree *kdtree.Tree[geomodel.Airport]
}

// KNearest returns up to k airports ordered by distance.
func (f *Airports) KNearest(loc geomodel.Location, k int) []geomodel.NearestAirport {
	found := f.tree.KNearest(loc.Lat, loc.Lon, k)
	if len(found) == 0 {
		return nil
	}

	res := make([]geomodel.NearestAirport, len(found))
	for i, n := range found {
		res[i] = geomodel.NearestAirport{Airport: n.Point.Data, Distance: n.Distance}
	}
	return res
}

// Nearest returns the geomodel.NResults closest airports.
func (f *Airports) Nearest(loc geomodel.Location) geomodel.AirportList {
	var list geomodel.AirportList
	for i, n := range f.tree.KNearest(loc.Lat, loc.Lon, len(list)) {
		list[i] = geomodel.NearestAirport{Airport: n.Point.Data, Distance: n.Distance}
	}
	return list
}

func (f *Airports) NearestAirports(_ context.Context, loc geomodel.Location) (geomodel.AirportList, error) {
	return f.Nearest(loc), nil
}

// Within returns every airport no farther than miles, ordered by distance.
func (f *Airports) Within(loc geomodel.Location, miles float64) []geomodel.NearestAirport {
	var res []geomodel.NearestAirport
	f.tree.Within(loc.Lat, loc.Lon, miles, func(n kdtree.Neighbor[geomodel.Airport]) bool {
		res = append(res, geomodel.NearestAirport{Airport: n.Point.Data, Distance: n.Distance})
		return true
	})
	slices.SortStableFunc(res, func(a, b geomodel.NearestAirport) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return res
}

func (f *Airports) Size() int {
	return f.tree.Len()
}

// Cities is safe for concurrent use.
type Cities struct {
	trie *citytrie.Trie
}

// Query finds a city by name or name prefix, state picks between same named cities.
func (c *Cities) Query(name, state string) citytrie.Result {
	return c.trie.QueryPlace(name, state)
}

func (c *Cities) Size() int {
	return c.trie.Len()
}
