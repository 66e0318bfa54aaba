package geo

import (
	"math"
	"strconv"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in kilometres between two
// points given in degrees. Each coordinate is converted to radians before
// the differences are taken.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	lam1 := lon1 * degToRad
	phi2 := lat2 * degToRad
	lam2 := lon2 * degToRad

	dPhi := phi2 - phi1
	dLambda := lam2 - lam1

	a := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Round2 rounds km to two decimal places using the exact decimal value of
// km, so 381.145 (stored as 381.14499...) rounds down.
func Round2(km float64) float64 {
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return km
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(km, 'f', 2, 64), 64)
	return rounded
}
