package exchange

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-currency-exchange/amount"
	"go-currency-exchange/domain"
	"go-currency-exchange/ledger"
)

var today = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *service {
	s := &service{
		session: NewSession("USD", "USD", "EUR"),
		ledger:  ledger.New(domain.Balances{"USD": 500, "EUR": 400, "GBP": 300}),
		now:     func() time.Time { return today },
	}
	require.NoError(t, s.ApplyRates(context.Background(), usdRates()))
	return s
}

func TestService_Snapshot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	snap := s.Snapshot(ctx)
	assert.Equal(t, domain.Currency("USD"), snap.Base)
	assert.Equal(t, domain.Quote{Name: "EUR", Value: 0.84}, snap.Buy)
	assert.Equal(t, domain.Balances{"USD": 500, "EUR": 400, "GBP": 300}, snap.Balances)
	assert.Equal(t, "1USD = 0.84EUR", snap.MarketOrder)
	assert.False(t, snap.BalanceExceeded)
	assert.False(t, snap.CanExchange)

	s.EditBaseAmount(ctx, "600")
	snap = s.Snapshot(ctx)
	assert.True(t, snap.BalanceExceeded)
	assert.False(t, snap.CanExchange)

	s.EditBaseAmount(ctx, "300")
	snap = s.Snapshot(ctx)
	assert.False(t, snap.BalanceExceeded)
	assert.True(t, snap.CanExchange)
}

func TestService_Exchange(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	in, ok := s.EditBaseAmount(ctx, "300")
	require.True(t, ok)
	require.Equal(t, "252", in.BuyingAmount)

	tx, balances, err := s.Exchange(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Sold USD for EUR", tx.Title)
	assert.Equal(t, today, tx.Date)
	assert.Equal(t, domain.Balances{"USD": 200, "EUR": 652, "GBP": 300}, balances)
	assert.Equal(t, balances, s.Snapshot(ctx).Balances)

	days := s.Transactions(ctx)
	require.Len(t, days, 1)
	assert.Equal(t, "16 October", days[0].Key)
	assert.Equal(t, []domain.Transaction{tx}, days[0].Transactions)

	// inputs are kept after a commit
	assert.Equal(t, domain.InputValues{BaseAmount: "300", BuyingAmount: "252"}, s.Snapshot(ctx).Inputs)
}

func TestService_ExchangeRefused(t *testing.T) {
	tests := []struct {
		name string
		base string
		want error
	}{
		{"nothing typed", "0", ErrNothingToExchange},
		{"over balance", "600", ErrBalanceExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			ctx := context.Background()
			s.EditBaseAmount(ctx, tt.base)

			_, balances, err := s.Exchange(ctx)

			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, balances)
			assert.Empty(t, s.Transactions(ctx))
			assert.Equal(t, domain.Amount(500), s.Snapshot(ctx).Balances["USD"])
		})
	}
}

func TestService_ExchangeWithoutBuyRate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// the refreshed table no longer quotes EUR
	require.NoError(t, s.ApplyRates(ctx, domain.Rates{"BSD": 1.0, "GBP": 0.72}))
	s.EditBaseAmount(ctx, "10")
	require.False(t, s.Snapshot(ctx).CanExchange)

	_, _, err := s.Exchange(ctx)

	assert.ErrorIs(t, err, ErrNoRates)
	assert.Empty(t, s.Transactions(ctx))
	assert.Equal(t, domain.Balances{"USD": 500, "EUR": 400, "GBP": 300}, s.Snapshot(ctx).Balances)
}

// A buying amount too small to show up in the base currency after rounding
// is still exchanged: only both amounts being zero is refused.
func TestService_ExchangeRoundedToZeroBase(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	rates := usdRates()
	rates["JPY"] = 149.37
	require.NoError(t, s.ApplyRates(ctx, rates))
	require.NoError(t, s.SelectBuyCurrency(ctx, "JPY"))

	in, ok := s.EditBuyingAmount(ctx, "0.01")
	require.True(t, ok)
	require.Equal(t, domain.InputValues{BaseAmount: "0", BuyingAmount: "0.01"}, in)

	tx, balances, err := s.Exchange(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.Leg{Name: "USD", Amount: 0}, tx.ExchangedCurrencies.Base)
	assert.Equal(t, domain.Leg{Name: "JPY", Amount: 0.01}, tx.ExchangedCurrencies.Bought)
	assert.Equal(t, domain.Amount(500), balances["USD"])
}

func TestService_Convert(t *testing.T) {
	s := newTestService(t)

	got, err := s.Convert(context.Background(), 10, "USD", "GBP")

	require.NoError(t, err)
	assert.Equal(t, domain.Conversion{Rate: 0.72, Amount: 7.2}, got)
}

// Edits and refreshes racing from many goroutines must still leave the two
// fields consistent with the rate the session ends up with.
func TestService_Serialized(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.EditBaseAmount(ctx, fmt.Sprint(i))
		}(i)
		go func(i int) {
			defer wg.Done()
			rates := usdRates()
			rates["EUR"] = domain.Rate(0.5 + float64(i)/100)
			_ = s.ApplyRates(ctx, rates)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot(ctx)
	want := amount.Format(amount.ParseOrZero(snap.Inputs.BaseAmount) * float64(snap.Buy.Value))
	assert.Equal(t, want, snap.Inputs.BuyingAmount)
}

func TestLoggingService(t *testing.T) {
	var buf bytes.Buffer
	s := NewLoggingService(log.NewLogfmtLogger(&buf), newTestService(t))
	ctx := context.Background()

	s.EditBaseAmount(ctx, "300")
	_, _, err := s.Exchange(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SelectBuyCurrency(ctx, "XYZ"), ErrUnknownCurrency)

	out := buf.String()
	assert.Contains(t, out, `method=exchange title="Sold USD for EUR" sold=300 bought=252 balance=200`)
	assert.Contains(t, out, "method=select_buy_currency currency=XYZ")
	assert.Contains(t, out, "unknown currency")
}
