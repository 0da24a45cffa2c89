// Package geo provides the great-circle distance helper used to rank
// available orders by how far they are from a driver.
package geo

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the haversine distance in kilometres between a known
// point and an optional destination, rounded to 2 decimal places. It returns
// nil when either destination coordinate is missing: distance unknown, never
// an error.
func DistanceKm(lat1, lng1 float64, lat2, lng2 *float64) *float64 {
	if lat2 == nil || lng2 == nil {
		return nil
	}

	dLat := deg2rad(*lat2 - lat1)
	dLng := deg2rad(*lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(*lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distance := math.Round(earthRadiusKm*c*100) / 100

	return &distance
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}
