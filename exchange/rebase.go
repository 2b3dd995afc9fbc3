package exchange

import (
	"fmt"

	"go-currency-exchange/domain"
)

// Rebase converts rates quoted against the reference currency into rates quoted
// against target. The reference currency gains an entry and target loses its
// own, since a currency's rate against itself is implicit.
//
// Rebasing onto the reference returns a copy of rates. target must otherwise be
// a key of rates with a positive rate; anything else is a programming error and
// panics. Callers only offer currencies taken from the same table.
func Rebase(target, reference domain.Currency, rates domain.Rates) domain.Rates {
	if target == reference {
		return rates.Copy()
	}

	rate, ok := rates[target]
	if !ok || rate <= 0 {
		panic(fmt.Sprintf("exchange: rebase onto %v: no usable rate against %v", target, reference))
	}

	// value of one unit of target, in the reference currency
	unit := 1 / rate

	rebased := make(domain.Rates, len(rates))
	rebased[reference] = domain.Rate(unit)
	for c, r := range rates {
		if c == target || c == reference {
			continue
		}
		rebased[c] = r * domain.Rate(unit)
	}
	return rebased
}
