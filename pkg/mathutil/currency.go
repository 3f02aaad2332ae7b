// Package mathutil provides common mathematical utility functions over integer
// minor units.
package mathutil

import (
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

// AbsCents returns the absolute value of an amount in cents.
func AbsCents(val int64) int64 {
	if val < 0 {
		return -val
	}
	return val
}

// Clamp bounds val to [lo, hi].
func Clamp(val, lo, hi int64) int64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// MinCents returns the minimum of two amounts
func MinCents(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxCents returns the maximum of two amounts
func MaxCents(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ToMajor converts cents into an exact major-unit decimal.
func ToMajor(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// ToMajorFloat converts cents into major units for charting.
func ToMajorFloat(cents int64) float64 {
	return ToMajor(cents).InexactFloat64()
}

// WholeMajor truncates cents toward zero into whole major units.
func WholeMajor(cents int64) int64 {
	return cents / constants.CentsPerUnit
}

// FromMajor converts whole major units into cents.
func FromMajor(units int64) int64 {
	return units * constants.CentsPerUnit
}

// PercentOf returns percent% of val, truncated toward zero.
func PercentOf(val, percent int64) int64 {
	return decimal.NewFromInt(val).Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100)).IntPart()
}

// FromMajorFloat converts a major-unit amount from a config file into cents,
// rounding half away from zero.
func FromMajorFloat(units float64) int64 {
	return decimal.NewFromFloat(units).Shift(2).Round(0).IntPart()
}
