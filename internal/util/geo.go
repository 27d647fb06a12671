package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// HaversineDistance returns the great-circle distance in kilometers between
// two (lat, lng) points given in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	// Convert angle to distance on Earth's surface
	earthRadiusKm := 6371.0
	return angle.Radians() * earthRadiusKm
}

// PointInRing reports whether point is inside the ring using the even-odd
// ray-casting rule. The ring may be explicitly closed or not; rings with
// fewer than 3 vertices never contain anything. The crossing test uses a
// half-open y span, so edge behavior is deterministic.
func PointInRing(ring orb.Ring, point orb.Point) bool {
	if len(ring) < 3 {
		return false
	}

	x, y := point[0], point[1]
	inside := false

	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}

	return inside
}

// PointInPolygon reports whether point is inside the polygon. Interior rings
// (holes) follow the even-odd rule: a point inside an odd number of rings is
// contained.
func PointInPolygon(polygon orb.Polygon, point orb.Point) bool {
	inside := false
	for _, ring := range polygon {
		if PointInRing(ring, point) {
			inside = !inside
		}
	}
	return inside
}

// PointInMultiPolygon reports whether any constituent polygon contains point.
func PointInMultiPolygon(mp orb.MultiPolygon, point orb.Point) bool {
	for _, polygon := range mp {
		if PointInPolygon(polygon, point) {
			return true
		}
	}
	return false
}
