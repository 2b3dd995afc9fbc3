package exchange

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-currency-exchange/domain"
	"go-currency-exchange/ledger"
)

var (
	// ErrBalanceExceeded the base amount is more than the balance held
	ErrBalanceExceeded = errors.New("exceeds balance")

	// ErrNothingToExchange both amounts are zero
	ErrNothingToExchange = errors.New("nothing to exchange")
)

// Snapshot everything a presentation layer needs to render the exchange screen
type Snapshot struct {
	State
	Balances        domain.Balances
	BalanceExceeded bool
	CanExchange     bool
	MarketOrder     string
}

// Service interface to one exchange session and its ledger. Implementations
// must run calls one at a time: no call observes another one half done.
type Service interface {
	Snapshot(ctx context.Context) Snapshot
	Transactions(ctx context.Context) []ledger.Day

	// ApplyRates installs rates fetched from the provider, quoted against the reference currency
	ApplyRates(ctx context.Context, rates domain.Rates) error

	// EditBaseAmount and EditBuyingAmount return false when raw was rejected and nothing changed
	EditBaseAmount(ctx context.Context, raw string) (domain.InputValues, bool)
	EditBuyingAmount(ctx context.Context, raw string) (domain.InputValues, bool)

	SelectBaseCurrency(ctx context.Context, c domain.Currency) error
	SelectBuyCurrency(ctx context.Context, c domain.Currency) error
	SetFocus(ctx context.Context, f Focus)

	// Exchange commits the current inputs as a transaction and returns the
	// balances as they are right after it
	Exchange(ctx context.Context) (domain.Transaction, domain.Balances, error)

	// Convert converts any amount between two known currencies, without touching the session
	Convert(ctx context.Context, amount domain.Amount, from domain.Currency, to domain.Currency) (domain.Conversion, error)
}

// service serializes access to a Session and its Ledger
type service struct {
	lock sync.Mutex

	session *Session
	ledger  *ledger.Ledger

	// now the clock transactions are dated with
	now func() time.Time
}

// NewService constructs a valid Service
func NewService(session *Session, ledger *ledger.Ledger) Service {
	return &service{
		session: session,
		ledger:  ledger,
		now:     time.Now,
	}
}

func (s *service) Snapshot(_ context.Context) Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	held := s.ledger.Balance(s.session.Base())
	return Snapshot{
		State:           s.session.State(),
		Balances:        s.ledger.Balances(),
		BalanceExceeded: s.session.BalanceExceeded(held),
		CanExchange:     s.session.CanExchange(held),
		MarketOrder:     s.session.MarketOrder(),
	}
}

func (s *service) Transactions(_ context.Context) []ledger.Day {
	return s.ledger.Days()
}

func (s *service) ApplyRates(_ context.Context, rates domain.Rates) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session.ApplyRates(rates)
}

func (s *service) EditBaseAmount(_ context.Context, raw string) (domain.InputValues, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ok := s.session.EditBaseAmount(raw)
	return s.session.Inputs(), ok
}

func (s *service) EditBuyingAmount(_ context.Context, raw string) (domain.InputValues, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ok := s.session.EditBuyingAmount(raw)
	return s.session.Inputs(), ok
}

func (s *service) SelectBaseCurrency(_ context.Context, c domain.Currency) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session.SelectBaseCurrency(c)
}

func (s *service) SelectBuyCurrency(_ context.Context, c domain.Currency) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session.SelectBuyCurrency(c)
}

func (s *service) SetFocus(_ context.Context, f Focus) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.session.SetFocus(f)
}

// Exchange refuses what the exchange button would not allow: an amount over
// the base balance, an unknown buy rate, or nothing to exchange. The ledger
// itself accepts anything.
func (s *service) Exchange(_ context.Context) (domain.Transaction, domain.Balances, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	held := s.ledger.Balance(s.session.Base())
	switch {
	case s.session.BalanceExceeded(held):
		return domain.Transaction{}, nil, ErrBalanceExceeded
	case !s.session.Buy().Known():
		return domain.Transaction{}, nil, ErrNoRates
	case !s.session.CanExchange(held):
		return domain.Transaction{}, nil, ErrNothingToExchange
	}

	tx, err := s.ledger.Commit(s.session.Base(), s.session.Buy(), s.session.Inputs(), s.now())
	if err != nil {
		return domain.Transaction{}, nil, err
	}
	return tx, s.ledger.Balances(), nil
}

func (s *service) Convert(_ context.Context, amount domain.Amount, from domain.Currency, to domain.Currency) (domain.Conversion, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session.Convert(amount, from, to)
}
