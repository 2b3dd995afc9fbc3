package exchange

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"go-currency-exchange/amount"
	"go-currency-exchange/domain"
)

var (
	// ErrUnknownCurrency a currency that is not part of the current rate table
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrNoRates no rate table has been applied yet, or it has no rate for the buy currency
	ErrNoRates = errors.New("no exchange rates yet")
)

// Focus tells which amount field the user is editing. During a refresh the
// focused field is kept and the other one is derived from it.
type Focus int

const (
	FocusBase Focus = iota
	FocusBuying
)

func (f Focus) String() string {
	if f == FocusBuying {
		return "buying"
	}
	return "base"
}

// State a copy of everything a Session holds
type State struct {
	Reference  domain.Currency    `json:"reference"`
	Base       domain.Currency    `json:"base"`
	Buy        domain.Quote       `json:"buy"`
	Currencies []domain.Currency  `json:"currencies"`
	Rates      domain.Rates       `json:"rates"`
	Inputs     domain.InputValues `json:"inputs"`
	Focus      Focus              `json:"-"`
}

// Session the state behind one exchange screen: the selected currencies, the
// two amount fields and the rate tables they are computed from.
//
// A Session is not safe for concurrent use. Service serializes access to it.
type Session struct {
	// reference currency the provider quotes against
	reference domain.Currency

	base domain.Currency
	buy  domain.Quote

	// currencies selectable as base: the reference plus every fetched key
	currencies []domain.Currency

	// fetched rates as quoted against reference
	fetched domain.Rates

	// rates re-based onto base, as displayed
	rates domain.Rates

	inputs domain.InputValues
	focus  Focus
}

// NewSession returns a session selling base for buy. Amounts stay at zero and
// rates unknown until the first ApplyRates.
func NewSession(reference, base, buy domain.Currency) *Session {
	return &Session{
		reference: reference,
		base:      base,
		buy:       domain.Quote{Name: buy},
		fetched:   domain.Rates{},
		rates:     domain.Rates{},
		inputs:    domain.ZeroInputs,
	}
}

// ApplyRates installs a freshly fetched rate table quoted against the
// reference currency, then re-derives the displayed rates, the buy quote and
// the field that is not being edited.
//
// Entries for the reference itself and rates that are not positive and finite
// are ignored. If the table lacks the current base currency nothing changes
// and ErrUnknownCurrency is returned.
func (s *Session) ApplyRates(fetched domain.Rates) error {
	clean := make(domain.Rates, len(fetched))
	for c, r := range fetched {
		if c == s.reference || !(r > 0) || math.IsInf(float64(r), 1) {
			continue
		}
		clean[c] = r
	}
	if _, ok := clean[s.base]; !ok && s.base != s.reference {
		return fmt.Errorf("apply rates, base %v: %w", s.base, ErrUnknownCurrency)
	}

	s.fetched = clean
	s.rates = Rebase(s.base, s.reference, clean)
	s.buy.Value = s.rates[s.buy.Name]
	s.reconcile()
	s.currencies = currencies(s.reference, clean)
	return nil
}

// reconcile re-derives the unfocused field from the focused one
func (s *Session) reconcile() {
	if s.focus == FocusBuying {
		s.inputs.BaseAmount = s.toBase(s.inputs.BuyingAmount)
		return
	}
	s.inputs.BuyingAmount = s.toBuying(s.inputs.BaseAmount)
}

// EditBaseAmount handles text typed into the base field. Empty text resets
// both fields; text that is not a valid amount is ignored and false returned.
func (s *Session) EditBaseAmount(raw string) bool {
	if raw == "" {
		s.inputs = domain.ZeroInputs
		return true
	}
	if !amount.Valid(raw) {
		return false
	}
	s.inputs = domain.InputValues{
		BaseAmount:   amount.Normalize(raw),
		BuyingAmount: s.toBuying(raw),
	}
	return true
}

// EditBuyingAmount is EditBaseAmount for the buying field
func (s *Session) EditBuyingAmount(raw string) bool {
	if raw == "" {
		s.inputs = domain.ZeroInputs
		return true
	}
	if !amount.Valid(raw) {
		return false
	}
	s.inputs = domain.InputValues{
		BaseAmount:   s.toBase(raw),
		BuyingAmount: amount.Normalize(raw),
	}
	return true
}

func (s *Session) toBuying(base string) string {
	if !s.buy.Known() {
		return "0"
	}
	return amount.Format(amount.ParseOrZero(base) * float64(s.buy.Value))
}

func (s *Session) toBase(buying string) string {
	if !s.buy.Known() {
		return "0"
	}
	return amount.Format(amount.ParseOrZero(buying) / float64(s.buy.Value))
}

// SelectBuyCurrency switches the currency being bought and resets both fields
func (s *Session) SelectBuyCurrency(c domain.Currency) error {
	rate, ok := s.rates[c]
	if !ok {
		return fmt.Errorf("select buy currency %v: %w", c, ErrUnknownCurrency)
	}
	s.buy = domain.Quote{Name: c, Value: rate}
	s.inputs = domain.ZeroInputs
	return nil
}

// SelectBaseCurrency switches the currency being sold and resets both fields.
// Picking the currency currently being bought swaps the two, so a currency is
// never exchanged for itself.
func (s *Session) SelectBaseCurrency(c domain.Currency) error {
	if _, ok := s.fetched[c]; !ok && c != s.reference {
		return fmt.Errorf("select base currency %v: %w", c, ErrUnknownCurrency)
	}

	rates := Rebase(c, s.reference, s.fetched)
	if c == s.buy.Name {
		s.buy = domain.Quote{Name: s.base, Value: rates[s.base]}
	} else {
		s.buy.Value = rates[s.buy.Name]
	}

	s.base = c
	s.rates = rates
	s.inputs = domain.ZeroInputs
	return nil
}

// SetFocus records which field the user is editing
func (s *Session) SetFocus(f Focus) {
	s.focus = f
}

// Convert converts an arbitrary amount between two known currencies with the
// last fetched rates, independently of the selected pair.
func (s *Session) Convert(a domain.Amount, from, to domain.Currency) (domain.Conversion, error) {
	if len(s.fetched) == 0 {
		return domain.Conversion{}, ErrNoRates
	}
	for _, c := range []domain.Currency{from, to} {
		if _, ok := s.fetched[c]; !ok && c != s.reference {
			return domain.Conversion{}, fmt.Errorf("convert %v: %w", c, ErrUnknownCurrency)
		}
	}

	rate := domain.Rate(1)
	if from != to {
		rate = Rebase(from, s.reference, s.fetched)[to]
	}
	return domain.Conversion{
		Rate:   rate,
		Amount: domain.Amount(amount.Round2(float64(a) * float64(rate))),
	}, nil
}

// BalanceExceeded reports whether the base amount is more than held, the
// balance of the base currency
func (s *Session) BalanceExceeded(held domain.Amount) bool {
	return float64(held)-amount.ParseOrZero(s.inputs.BaseAmount) < 0
}

// CanExchange reports whether the current inputs may be committed: the buy
// rate is known, the base amount is within held, and not both amounts are zero.
func (s *Session) CanExchange(held domain.Amount) bool {
	if !s.buy.Known() || s.BalanceExceeded(held) {
		return false
	}
	return amount.ParseOrZero(s.inputs.BaseAmount) != 0 || amount.ParseOrZero(s.inputs.BuyingAmount) != 0
}

// MarketOrder describes the current rate, e.g. "1USD = 0.84EUR"
func (s *Session) MarketOrder() string {
	return fmt.Sprintf("1%v = %v%v", s.base, decimal.NewFromFloat(float64(s.buy.Value)).String(), s.buy.Name)
}

// Base the currency being sold
func (s *Session) Base() domain.Currency { return s.base }

// Buy the currency being bought and its rate
func (s *Session) Buy() domain.Quote { return s.buy }

// Inputs the two amount fields
func (s *Session) Inputs() domain.InputValues { return s.inputs }

// State returns a copy of the session state
func (s *Session) State() State {
	return State{
		Reference:  s.reference,
		Base:       s.base,
		Buy:        s.buy,
		Currencies: append([]domain.Currency(nil), s.currencies...),
		Rates:      s.rates.Copy(),
		Inputs:     s.inputs,
		Focus:      s.focus,
	}
}

// currencies lists the reference first, then every other fetched currency in
// alphabetical order
func currencies(reference domain.Currency, fetched domain.Rates) []domain.Currency {
	list := make([]domain.Currency, 0, len(fetched)+1)
	for c := range fetched {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return append([]domain.Currency{reference}, list...)
}
