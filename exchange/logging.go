package exchange

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"go-currency-exchange/domain"
	"go-currency-exchange/ledger"
)

// loggingService decorates an exchange.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

// Reads are frequent and uninteresting, so they log at debug.

func (s *loggingService) Snapshot(ctx context.Context) Snapshot {
	defer func(begin time.Time) {
		level.Debug(s.logger).Log("method", "snapshot", "took", time.Since(begin))
	}(time.Now())
	return s.next.Snapshot(ctx)
}

func (s *loggingService) Transactions(ctx context.Context) (days []ledger.Day) {
	defer func(begin time.Time) {
		level.Debug(s.logger).Log("method", "transactions", "days", len(days), "took", time.Since(begin))
	}(time.Now())
	return s.next.Transactions(ctx)
}

func (s *loggingService) ApplyRates(ctx context.Context, rates domain.Rates) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "apply_rates",
			"rates", len(rates),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ApplyRates(ctx, rates)
}

func (s *loggingService) EditBaseAmount(ctx context.Context, raw string) (in domain.InputValues, ok bool) {
	defer func(begin time.Time) {
		level.Debug(s.logger).Log(
			"method", "edit_base_amount",
			"text", raw,
			"accepted", ok,
			"base_amount", in.BaseAmount,
			"buying_amount", in.BuyingAmount,
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.EditBaseAmount(ctx, raw)
}

func (s *loggingService) EditBuyingAmount(ctx context.Context, raw string) (in domain.InputValues, ok bool) {
	defer func(begin time.Time) {
		level.Debug(s.logger).Log(
			"method", "edit_buying_amount",
			"text", raw,
			"accepted", ok,
			"base_amount", in.BaseAmount,
			"buying_amount", in.BuyingAmount,
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.EditBuyingAmount(ctx, raw)
}

func (s *loggingService) SelectBaseCurrency(ctx context.Context, c domain.Currency) (err error) {
	defer func(begin time.Time) {
		s.logger.Log("method", "select_base_currency", "currency", c, "took", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.SelectBaseCurrency(ctx, c)
}

func (s *loggingService) SelectBuyCurrency(ctx context.Context, c domain.Currency) (err error) {
	defer func(begin time.Time) {
		s.logger.Log("method", "select_buy_currency", "currency", c, "took", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.SelectBuyCurrency(ctx, c)
}

func (s *loggingService) SetFocus(ctx context.Context, f Focus) {
	defer func(begin time.Time) {
		level.Debug(s.logger).Log("method", "set_focus", "focus", f, "took", time.Since(begin))
	}(time.Now())
	s.next.SetFocus(ctx, f)
}

func (s *loggingService) Exchange(ctx context.Context) (tx domain.Transaction, balances domain.Balances, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "exchange",
			"title", tx.Title,
			"sold", tx.ExchangedCurrencies.Base.Amount,
			"bought", tx.ExchangedCurrencies.Bought.Amount,
			"balance", balances[tx.ExchangedCurrencies.Base.Name],
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Exchange(ctx)
}

func (s *loggingService) Convert(ctx context.Context, amount domain.Amount, from domain.Currency, to domain.Currency) (c domain.Conversion, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "convert",
			"amount", amount,
			"from", from,
			"to", to,
			"rate", c.Rate,
			"converted_amount", c.Amount,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Convert(ctx, amount, from, to)
}
