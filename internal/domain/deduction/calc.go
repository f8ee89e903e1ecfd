package deduction

import "github.com/shopspring/decimal"

// Compute maps minutes late to the fractional-day penalty:
// floor(minutes/60) whole hours at 0.125 each, plus the table value for the
// minute remainder, rounded to 3 decimal places. Non-positive input yields 0.
func Compute(minutesLate int) decimal.Decimal {
	if minutesLate <= 0 {
		return decimal.Zero
	}
	hours := minutesLate / 60
	remainder := minutesLate % 60
	return decimal.NewFromInt(int64(hours)).Mul(hourValue).Add(minuteValue[remainder]).Round(3)
}
