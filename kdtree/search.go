package kdtree

import (
	"slices"

	"github.com/royalcat/airplaces/greatcircle"
)

// boundSlack absorbs rounding differences between the acos based point distance and the
// pruning bounds, in miles.
const boundSlack = 1e-3

type nearestSearch[T any] struct {
	points   []Point[T]
	lat, lon float64
	k        int

	result []Neighbor[T]
}

// KNearest returns up to k points closest to (lat, lon) by great-circle distance,
// ascending by distance. Any finite longitude is accepted. It returns nil when k <= 0 or the tree is empty.
func (t *Tree[T]) KNearest(lat, lon float64, k int) []Neighbor[T] {
	if k <= 0 || len(t.points) == 0 {
		return nil
	}

	s := &nearestSearch[T]{
		points: t.points,
		lat:    lat,
		lon:    greatcircle.NormalizeLongitude(lon),
		k:      k,
		result: make([]Neighbor[T], 0, min(k, len(t.points))+1),
	}
	s.visit(0, len(t.points), 0)

	return slices.Clip(s.result)
}

func (s *nearestSearch[T]) worst() float64 {
	return s.result[len(s.result)-1].Distance
}

func (s *nearestSearch[T]) full() bool {
	return len(s.result) >= s.k
}

func (s *nearestSearch[T]) visit(lo, hi, depth int) {
	if lo >= hi {
		return
	}

	mid := lo + (hi-lo)/2
	p := &s.points[mid]

	dist := greatcircle.Distance(s.lat, s.lon, p.Lat, p.Lon)
	if !s.full() || dist < s.worst() {
		// linear insert, k is small
		i := slices.IndexFunc(s.result, func(n Neighbor[T]) bool {
			return dist < n.Distance
		})
		if i < 0 {
			i = len(s.result)
		}
		s.result = slices.Insert(s.result, i, Neighbor[T]{Point: *p, Distance: dist})
		if len(s.result) > s.k {
			s.result = s.result[:s.k]
		}
	}

	axis := depth % 2
	leftIsNear := targetCoord(s.lat, s.lon, axis) < p.coord(axis)

	if leftIsNear {
		s.visit(lo, mid, depth+1)
	} else {
		s.visit(mid+1, hi, depth+1)
	}

	if s.full() && farBound(s.lat, s.lon, p, axis) >= s.worst() {
		return
	}

	if leftIsNear {
		s.visit(mid+1, hi, depth+1)
	} else {
		s.visit(lo, mid, depth+1)
	}
}

// Within calls fn for every point at most radius miles away from (lat, lon), in no
// particular order. Returning false from fn stops the walk.
func (t *Tree[T]) Within(lat, lon, radius float64, fn func(n Neighbor[T]) bool) {
	if len(t.points) == 0 {
		return
	}

	lon = greatcircle.NormalizeLongitude(lon)
	stack := []int{0, len(t.points), 0}

	for len(stack) > 0 {
		depth := stack[len(stack)-1]
		hi := stack[len(stack)-2]
		lo := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if lo >= hi {
			continue
		}

		mid := lo + (hi-lo)/2
		p := &t.points[mid]

		dist := greatcircle.Distance(lat, lon, p.Lat, p.Lon)
		if dist <= radius {
			if !fn(Neighbor[T]{Point: *p, Distance: dist}) {
				return
			}
		}

		axis := depth % 2
		leftIsNear := targetCoord(lat, lon, axis) < p.coord(axis)
		farReachable := farBound(lat, lon, p, axis) <= radius

		if leftIsNear || farReachable {
			stack = append(stack, lo, mid, depth+1)
		}
		if !leftIsNear || farReachable {
			stack = append(stack, mid+1, hi, depth+1)
		}
	}
}

func targetCoord(lat, lon float64, axis int) float64 {
	if axis == 0 {
		return lat
	}
	return lon
}

// farBound is a lower bound on the distance from the target to any point on the other
// side of p's splitting plane.
func farBound[T any](lat, lon float64, p *Point[T], axis int) float64 {
	var bound float64
	if axis == 0 {
		bound = greatcircle.LatitudeBound(lat, lon, p.Lat)
	} else {
		bound = greatcircle.MeridianBound(lat, lon, p.Lon)
	}
	return bound - boundSlack
}
