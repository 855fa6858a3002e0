// Package greatcircle computes distances on a spherical Earth in statute miles.
package greatcircle

import "math"

// EarthRadiusMiles is the mean Earth radius in statute miles.
const EarthRadiusMiles = 3959.0

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Distance returns the great-circle distance between two coordinates given in degrees.
//
// It is the spherical law of cosines, acos(sin φ1·sin φ2 + cos φ1·cos φ2·cos Δλ),
// rewritten as cos Δφ − 2·cos φ1·cos φ2·sin²(Δλ/2). The two forms are equal, but the
// second one keeps full precision for close points, is exactly symmetric and returns 0
// for identical inputs. The acos argument is clamped to [-1, 1].
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	halfSinLon := math.Sin(deg2rad(lon2-lon1) / 2)

	cosProduct := math.Cos(deg2rad(lat1)) * math.Cos(deg2rad(lat2))
	c := math.Cos(dLat) - 2*cosProduct*halfSinLon*halfSinLon

	return EarthRadiusMiles * math.Acos(clamp(c))
}

// LatitudeBound is the smallest distance from (lat, lon) to any point whose latitude lies
// on the other side of the parallel splitLat: the distance to (splitLat, lon).
func LatitudeBound(lat, lon, splitLat float64) float64 {
	return Distance(lat, lon, splitLat, lon)
}

// MeridianBound is the smallest distance from (lat, lon) to the meridian splitLon, which
// bounds the distance to anything on the other side of it.
//
// The separation is measured both directly and across the antimeridian. Past 90 degrees
// of separation the closest point of the meridian is the nearer pole.
func MeridianBound(lat, lon, splitLon float64) float64 {
	lon = NormalizeLongitude(lon)
	sep := math.Abs(math.Mod(splitLon-lon, 360))
	if sep > 180 {
		sep = 360 - sep
	}

	// the far half also reaches the antimeridian
	if wrap := 180 - math.Abs(lon); wrap < sep {
		sep = wrap
	}

	if sep >= 90 {
		return EarthRadiusMiles * deg2rad(90-math.Abs(lat))
	}

	s := math.Cos(deg2rad(lat)) * math.Sin(deg2rad(sep))
	return EarthRadiusMiles * math.Asin(clamp(s))
}

// NormalizeLongitude maps lon into [-180, 180]. Values already in range are returned as is.
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
