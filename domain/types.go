package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency a currency code
type Currency string

// Amount a monetary amount... still a float, rounded to 2 decimals where it is displayed
type Amount float64

// Rate an exchange rate, expressed per one unit of some base currency
type Rate float64

// Rates maps currency codes to their rate against an implicit base currency.
// The base itself is never a key.
type Rates map[Currency]Rate

// Copy returns an independent copy of the rates
func (r Rates) Copy() Rates {
	c := make(Rates, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Balances maps currency codes to the amount held
type Balances map[Currency]Amount

// Copy returns an independent copy of the balances
func (b Balances) Copy() Balances {
	c := make(Balances, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Quote the currency being bought, together with its rate against the base currency.
// Value is zero until the first rate table has been applied.
type Quote struct {
	Name  Currency `json:"name"`
	Value Rate     `json:"value"`
}

// Known reports whether the quote carries a usable rate
func (q Quote) Known() bool {
	return q.Value > 0
}

// InputValues the two amount fields as typed/displayed. Kept as text so partial
// input such as "12." survives a round trip through the display.
type InputValues struct {
	BaseAmount   string `json:"baseAmount"`
	BuyingAmount string `json:"buyingAmount"`
}

// ZeroInputs the value both fields are reset to
var ZeroInputs = InputValues{BaseAmount: "0", BuyingAmount: "0"}

// Leg one side of a committed conversion
type Leg struct {
	Name   Currency `json:"name"`
	Amount Amount   `json:"amount"`
}

// Exchanged the two legs of a committed conversion
type Exchanged struct {
	Base   Leg `json:"base"`
	Bought Leg `json:"bought"`
}

// Transaction a committed conversion. Never modified once created.
type Transaction struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	Date                time.Time `json:"date"`
	ExchangedCurrencies Exchanged `json:"exchangedCurrencies"`
}

// Conversion the result of a one-off conversion between two currencies
type Conversion struct {
	Rate   Rate
	Amount Amount
}
