package service

import (
	"math"

	"swiftride/internal/config"
	"swiftride/internal/domain"
)

// FareBreakdown is a fare split into its components. The components
// stay fractional; only the total is rounded to whole currency units.
type FareBreakdown struct {
	Base     float64
	Distance float64
	Time     float64
	Total    int64
}

// FareCalculator computes fares from the configured per-class rate table.
type FareCalculator struct {
	rates map[string]config.FareRate
}

// NewFareCalculator creates a calculator over the given pricing table.
func NewFareCalculator(cfg config.PricingConfig) *FareCalculator {
	return &FareCalculator{rates: cfg.Rates}
}

// Estimate computes the pre-surge fare estimate for a ride of the given
// class, distance and duration.
func (f *FareCalculator) Estimate(class domain.VehicleClass, distanceMeters float64, durationSeconds int64) (int64, error) {
	breakdown, err := f.breakdown(class, distanceMeters, durationSeconds, 1.0)
	if err != nil {
		return 0, err
	}
	return breakdown.Total, nil
}

// Final computes the completed-trip fare with the surge multiplier
// applied to the whole amount.
func (f *FareCalculator) Final(class domain.VehicleClass, distanceMeters float64, durationSeconds int64, surge float64) (FareBreakdown, error) {
	return f.breakdown(class, distanceMeters, durationSeconds, surge)
}

func (f *FareCalculator) breakdown(class domain.VehicleClass, distanceMeters float64, durationSeconds int64, surge float64) (FareBreakdown, error) {
	rate, ok := f.rates[string(class)]
	if !ok {
		return FareBreakdown{}, ErrInvalidVehicleClass
	}

	km := distanceMeters / 1000
	minutes := float64(durationSeconds) / 60

	b := FareBreakdown{
		Base:     rate.Base,
		Distance: rate.PerKm * km,
		Time:     rate.PerMinute * minutes,
	}
	b.Total = int64(math.Round((b.Base + b.Distance + b.Time) * surge))
	return b, nil
}
