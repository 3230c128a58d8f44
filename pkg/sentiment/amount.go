package sentiment

import (
	"database/sql/driver"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for prices. It marshals to a plain JSON number
// and is stored as REAL.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs a JSON number rounded to 4 places.
func (a Amount) MarshalJSON() ([]byte, error) {
	f, _ := a.Round(4).Float64()
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.Decimal = decimal.Zero
		return nil
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
		return nil
	case int64:
		a.Decimal = decimal.NewFromInt(v)
		return nil
	}
	return a.Decimal.Scan(src)
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	f, _ := a.Round(4).Float64()
	return f, nil
}

// NewAmount creates an Amount from a float64.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// FormatPrice renders a price with its currency symbol and two decimals.
func FormatPrice(currencySymbol string, price float64) string {
	return currencySymbol + decimal.NewFromFloat(price).StringFixed(2)
}
