// Package ledger records committed conversions and the balances they move.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-currency-exchange/amount"
	"go-currency-exchange/domain"
)

// ErrInvalidAmount an amount field that does not hold a number
var ErrInvalidAmount = errors.New("invalid amount")

// Day the transactions committed on one calendar day, in commit order
type Day struct {
	Key          string               `json:"day"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Ledger holds balances per currency and the log of committed conversions,
// grouped by day. A commit updates both under one lock, so readers never see
// one without the other.
type Ledger struct {
	lock sync.RWMutex

	balances domain.Balances

	// days keys of log, in the order they were first used
	days []string
	log  map[string][]domain.Transaction

	// newID generates transaction ids
	newID func() uuid.UUID
}

// New returns a ledger opened with the given balances
func New(opening domain.Balances) *Ledger {
	balances := opening.Copy()
	if balances == nil {
		balances = domain.Balances{}
	}
	return &Ledger{
		balances: balances,
		log:      map[string][]domain.Transaction{},
		newID:    uuid.New,
	}
}

// DayKey the key transactions committed at t are grouped under, e.g. "16 October"
func DayKey(t time.Time) string {
	return fmt.Sprintf("%d %v", t.Day(), t.Month())
}

// Commit records the sale of inputs.BaseAmount of base for inputs.BuyingAmount
// of buy at the given time, and moves the balances accordingly. Nothing is
// applied when either amount is not a number.
//
// Commit does not check balances: callers decide whether a conversion is allowed.
func (l *Ledger) Commit(base domain.Currency, buy domain.Quote, inputs domain.InputValues, at time.Time) (domain.Transaction, error) {
	sold, err := amount.Parse(inputs.BaseAmount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("commit base amount: %w: %v", ErrInvalidAmount, err)
	}
	bought, err := amount.Parse(inputs.BuyingAmount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("commit buying amount: %w: %v", ErrInvalidAmount, err)
	}

	tx := domain.Transaction{
		ID:    l.newID(),
		Title: fmt.Sprintf("Sold %v for %v", base, buy.Name),
		Date:  at,
		ExchangedCurrencies: domain.Exchanged{
			Base:   domain.Leg{Name: base, Amount: domain.Amount(sold)},
			Bought: domain.Leg{Name: buy.Name, Amount: domain.Amount(bought)},
		},
	}
	key := DayKey(at)

	l.lock.Lock()
	defer l.lock.Unlock()

	if _, ok := l.log[key]; !ok {
		l.days = append(l.days, key)
	}
	l.log[key] = append(l.log[key], tx)
	l.balances[base] -= tx.ExchangedCurrencies.Base.Amount
	l.balances[buy.Name] += tx.ExchangedCurrencies.Bought.Amount

	return tx, nil
}

// Balance the amount held in c, zero if none
func (l *Ledger) Balance(c domain.Currency) domain.Amount {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.balances[c]
}

// Balances returns a copy of all balances
func (l *Ledger) Balances() domain.Balances {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.balances.Copy()
}

// Days returns a copy of the log as a list, days in the order they were first used
func (l *Ledger) Days() []Day {
	l.lock.RLock()
	defer l.lock.RUnlock()
	days := make([]Day, 0, len(l.days))
	for _, k := range l.days {
		days = append(days, Day{Key: k, Transactions: append([]domain.Transaction(nil), l.log[k]...)})
	}
	return days
}
