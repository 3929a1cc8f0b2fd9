package services

import (
	"math"
	"testing"

	"fieldvisit-backend/internal/models"
)

var samplePoints = []models.Coordinates{
	{Latitude: 13.0827, Longitude: 80.2707},
	{Latitude: 13.0927, Longitude: 80.2807},
	{Latitude: 51.5074, Longitude: -0.1278},
	{Latitude: -33.8688, Longitude: 151.2093},
	{Latitude: 0, Longitude: 0},
	{Latitude: 0, Longitude: 180},
	{Latitude: 90, Longitude: 0},
	{Latitude: -90, Longitude: 0},
	{Latitude: 89.9999999, Longitude: 179.9999999},
}

func TestHaversineSymmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			ab, ba := Haversine(a, b), Haversine(b, a)
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("haversine(%v,%v)=%f but reverse=%f", a, b, ab, ba)
			}
		}
	}
}

func TestHaversineZeroForIdenticalPoints(t *testing.T) {
	for _, p := range samplePoints {
		if d := Haversine(p, p); d != 0 {
			t.Errorf("haversine(%v,%v) = %v, want 0", p, p, d)
		}
	}
}

func TestHaversineNearAntipodalIsFinite(t *testing.T) {
	a := models.Coordinates{Latitude: 0, Longitude: 0}
	b := models.Coordinates{Latitude: 0, Longitude: 180}
	d := Haversine(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("antipodal distance = %v", d)
	}
	halfCircumference := math.Pi * EarthRadiusMeters
	if math.Abs(d-halfCircumference) > 1 {
		t.Errorf("antipodal distance = %f, want %f", d, halfCircumference)
	}

	nearly := models.Coordinates{Latitude: -1e-12, Longitude: 180}
	if d := Haversine(a, nearly); math.IsNaN(d) {
		t.Error("near-antipodal distance is NaN")
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	checkIn := models.Coordinates{Latitude: 13.0827, Longitude: 80.2707}
	checkOut := models.Coordinates{Latitude: 13.0927, Longitude: 80.2807}
	d := Haversine(checkIn, checkOut)
	if d < 1400 || d > 1700 {
		t.Errorf("distance = %.1fm, want about 1.5km", d)
	}
}

func TestLocationMismatchMonotonicInThreshold(t *testing.T) {
	distances := []float64{0, 1, 499.9, 500, 500.1, 1552, 20000}
	thresholds := []int{1, 100, 500, 1000, 5000, 100000}

	for _, d := range distances {
		for i := 1; i < len(thresholds); i++ {
			lower, higher := thresholds[i-1], thresholds[i]
			if !IsLocationMismatch(d, lower) && IsLocationMismatch(d, higher) {
				t.Errorf("distance %v: raising threshold %d -> %d created a mismatch", d, lower, higher)
			}
		}
	}

	if IsLocationMismatch(500, 500) {
		t.Error("distance equal to threshold must not be a mismatch")
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{13.0827, 80.2707, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, c := range cases {
		if got := ValidCoordinates(c.lat, c.lng); got != c.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}
