package services

import (
	"math"

	"fieldvisit-backend/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points
// given in degrees. The intermediate term is clamped to [0, 1] so rounding
// near antipodal points cannot produce NaN.
func Haversine(a, b models.Coordinates) float64 {
	if a == b {
		return 0
	}

	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsLocationMismatch reports whether the displacement exceeds the threshold.
func IsLocationMismatch(distanceMeters float64, thresholdMeters int) bool {
	return distanceMeters > float64(thresholdMeters)
}

// ValidCoordinates rejects NaN, infinities and out-of-range degrees.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
