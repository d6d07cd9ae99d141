package money

import (
	"fmt"
	"math"
	"strconv"
)

// Cents is an integer amount in minor units. The platform's authorization
// simulator expects amounts as a cents string, while its clearing simulator
// expects decimal dollars. Keeping the two as distinct types forces every
// conversion through a checked call site.
type Cents int64

// Dollars is a decimal amount in major units.
type Dollars float64

// Cents converts a dollar amount to cents, rounding to the nearest cent.
// Returns an error for negative or non-finite inputs.
func (d Dollars) Cents() (Cents, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid dollar amount: %v", f)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative dollar amount: %v", f)
	}
	return Cents(math.Round(f * 100)), nil
}

// Dollars converts a cents amount to decimal dollars.
func (c Cents) Dollars() Dollars {
	return Dollars(float64(c) / 100)
}

// String renders the amount as a plain integer string ("1000" for $10.00),
// the format the authorization simulator expects.
func (c Cents) String() string {
	return strconv.FormatInt(int64(c), 10)
}
