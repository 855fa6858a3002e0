// Package kdtree is a static 2d KD-tree over latitude/longitude points with great-circle
// nearest neighbour and radius queries.
//
// The tree is implicit: construction permutes the points slice so that the node of the
// sub-range [lo, hi) is the element at lo+(hi-lo)/2, its left subtree is [lo, mid) and
// its right subtree is [mid+1, hi). Even depths split by latitude, odd by longitude.
package kdtree

import (
	"math"

	"github.com/royalcat/airplaces/greatcircle"
)

type Point[T any] struct {
	Lat, Lon float64
	Data     T
}

func (p *Point[T]) coord(axis int) float64 {
	if axis == 0 {
		return p.Lat
	}
	return p.Lon
}

type Neighbor[T any] struct {
	Point    Point[T]
	Distance float64 // statute miles
}

type Tree[T any] struct {
	points []Point[T]
}

// New takes ownership of points and builds the tree over them. Longitudes outside
// [-180, 180] are wrapped into it; Data is left untouched.
func New[T any](points []Point[T]) *Tree[T] {
	for i := range points {
		points[i].Lon = greatcircle.NormalizeLongitude(points[i].Lon)
	}
	build(points, 0, len(points), 0)
	return &Tree[T]{points: points}
}

// Len returns the number of indexed points.
func (t *Tree[T]) Len() int {
	return len(t.points)
}

func build[T any](points []Point[T], lo, hi, depth int) {
	if hi-lo <= 1 {
		return
	}

	mid := lo + (hi-lo)/2
	sselect(points, mid, lo, hi-1, depth%2)

	build(points, lo, mid, depth+1)
	build(points, mid+1, hi, depth+1)
}

// sselect is Floyd-Rivest selection: after it returns points[k] holds the element a full
// sort of points[left:right+1] on axis would put there, smaller ones before it and larger
// ones after it.
func sselect[T any](points []Point[T], k, left, right, axis int) {
	for right > left {
		if right-left > 600 {
			n := right - left + 1
			m := k - left + 1
			z := math.Log(float64(n))
			s := 0.5 * math.Exp(2.0*z/3.0)
			sd := 0.5 * math.Sqrt(z*s*(float64(n)-s)/float64(n))
			if float64(m)-float64(n)/2.0 < 0 {
				sd = -sd
			}
			newLeft := max(left, floor(float64(k)-float64(m)*s/float64(n)+sd))
			newRight := min(right, floor(float64(k)+float64(n-m)*s/float64(n)+sd))
			sselect(points, k, newLeft, newRight, axis)
		}

		t := points[k].coord(axis)
		i := left
		j := right

		swap(points, left, k)
		if points[right].coord(axis) > t {
			swap(points, left, right)
		}

		for i < j {
			swap(points, i, j)
			i++
			j--
			for points[i].coord(axis) < t {
				i++
			}
			for points[j].coord(axis) > t {
				j--
			}
		}

		if points[left].coord(axis) == t {
			swap(points, left, j)
		} else {
			j++
			swap(points, j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func swap[T any](points []Point[T], i, j int) {
	points[i], points[j] = points[j], points[i]
}

func floor(in float64) int {
	return int(math.Floor(in))
}
