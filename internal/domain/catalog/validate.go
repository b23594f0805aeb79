package catalog

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxPrice is the exclusive upper bound of a price (numeric(10,2))
var MaxPrice = decimal.New(1, PricePrecision-PriceScale)

// ValidateName checks ticker/quote name length (1-20 characters)
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > NameMaxLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, NameMaxLength)
	}
	return nil
}

// ValidateTimestamp checks that ts is non-negative and not in the future
func ValidateTimestamp(ts int64, now time.Time) error {
	if ts < 0 {
		return fmt.Errorf("%w: can't be negative", ErrInvalidTimestamp)
	}
	if ts > now.Unix() {
		return fmt.Errorf("%w: can't be in the future", ErrInvalidTimestamp)
	}
	return nil
}

// ValidatePrice checks 0 <= price < 10^8 with at most two fractional digits
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() || price.GreaterThanOrEqual(MaxPrice) {
		return fmt.Errorf("%w: can't be negative and greater or equal to 10^8", ErrInvalidPrice)
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidPrice, PriceScale)
	}
	return nil
}

// Validate checks ticker field lengths
func (t Ticker) Validate() error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(t.FullName); n < 1 || n > FullNameMaxLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidFullName, FullNameMaxLength)
	}
	if n := utf8.RuneCountInString(t.Description); n < 1 || n > DescriptionMaxLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidDescription, DescriptionMaxLength)
	}
	return nil
}

// Validate checks quote fields against the current time
func (q Quote) Validate(now time.Time) error {
	if err := q.Key().Validate(now); err != nil {
		return err
	}
	return ValidatePrice(q.Price)
}

// Validate checks the key fields against the current time
func (k QuoteKey) Validate(now time.Time) error {
	if err := ValidateName(k.Name); err != nil {
		return err
	}
	return ValidateTimestamp(k.Timestamp, now)
}
