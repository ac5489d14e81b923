package geo

import "math"

const (
	EarthRadiusKm = 6371.0
	MilesPerKm    = 0.621371

	shortCommuteMiles    = 20.0
	moderateCommuteMiles = 35.0

	TierShort    = "short"
	TierModerate = "moderate"
	TierLong     = "long"

	CalculationMethod = "Haversine (straight-line distance)"
)

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Commute is the feasibility reading of a straight-line distance.
type Commute struct {
	Tier              string `json:"tier"`
	Reasonable        bool   `json:"commute_reasonable"`
	NeedsConfirmation bool   `json:"needs_confirmation"`
	Description       string `json:"commute_description"`
}

// Classify buckets a distance in miles: under 20 is short, under 35 is moderate
// and still reasonable but worth confirming, anything further is long.
func Classify(miles float64) Commute {
	switch {
	case miles < shortCommuteMiles:
		return Commute{Tier: TierShort, Reasonable: true, Description: "Short commute (reasonable)"}
	case miles < moderateCommuteMiles:
		return Commute{Tier: TierModerate, Reasonable: true, NeedsConfirmation: true, Description: "Moderate commute (verify with candidate)"}
	default:
		return Commute{Tier: TierLong, Reasonable: false, Description: "Long commute (may be concern)"}
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
