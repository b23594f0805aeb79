package catalog

import (
	"github.com/shopspring/decimal"
)

// Field limits
const (
	NameMaxLength        = 20
	FullNameMaxLength    = 50
	DescriptionMaxLength = 200

	// PriceScale is the number of fractional digits stored for a price
	PriceScale = 2
	// PricePrecision is the total number of digits stored for a price
	PricePrecision = 10
)

// Placeholder values used when a quote arrives for an unknown ticker
const (
	UnknownFullName    = "unknown"
	UnknownDescription = "unknown"
)

// Ticker represents a named instrument
// Maps to ticker table
type Ticker struct {
	Name        string `json:"name" db:"name"`                // 종목 코드 (PK)
	FullName    string `json:"full_name" db:"full_name"`      // 종목명
	Description string `json:"description" db:"description"` // 설명
}

// PlaceholderTicker returns the ticker auto-created for a quote whose name is not registered yet
func PlaceholderTicker(name string) Ticker {
	return Ticker{
		Name:        name,
		FullName:    UnknownFullName,
		Description: UnknownDescription,
	}
}

// QuoteKey identifies a quote
type QuoteKey struct {
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

// Quote represents a price observation for a ticker
// Maps to quote table
type Quote struct {
	Name      string          `json:"name" db:"name"`           // ticker.name 참조
	Timestamp int64           `json:"timestamp" db:"timestamp"` // unix seconds
	Price     decimal.Decimal `json:"price" db:"price"`         // numeric(10,2)
}

// Key returns the composite key of the quote
func (q Quote) Key() QuoteKey {
	return QuoteKey{Name: q.Name, Timestamp: q.Timestamp}
}

// Equal reports whether two quotes carry the same key and price
func (q Quote) Equal(other Quote) bool {
	return q.Name == other.Name && q.Timestamp == other.Timestamp && q.Price.Equal(other.Price)
}
