package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"go-currency-exchange/config"
	"go-currency-exchange/domain"
	"go-currency-exchange/exchange"
	"go-currency-exchange/http"
	"go-currency-exchange/ledger"
	"go-currency-exchange/provider"
	"go-currency-exchange/refresh"

	nhttp "net/http"
)

func main() {
	w := log.NewSyncWriter(os.Stderr)
	logger := log.NewLogfmtLogger(w)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	// info until the configured level is known
	cfg, err := config.Load(level.NewFilter(logger, level.AllowInfo()))
	if err != nil {
		level.Error(logger).Log("msg", "bad configuration", "err", err)
		os.Exit(1)
	}
	logger = level.NewFilter(logger, cfg.LevelOption())

	providerService := provider.NewService(cfg.Provider.Url, cfg.Provider.ApiKey, cfg.Provider.Timeout)
	providerService = provider.NewLoggingService(log.With(logger, "component", "provider"), providerService)

	session := exchange.NewSession(
		domain.Currency(cfg.ReferenceCurrency),
		domain.Currency(cfg.BaseCurrency),
		domain.Currency(cfg.BuyCurrency),
	)
	exchangeService := exchange.NewService(session, ledger.New(cfg.OpeningBalances()))
	exchangeService = exchange.NewLoggingService(log.With(logger, "component", "exchange"), exchangeService)

	scheduler := refresh.New(cfg.RefreshInterval, cfg.Provider.Timeout, providerService, exchangeService, log.With(logger, "component", "refresh"))
	handler := http.NewServer(exchangeService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	stopRefresh := scheduler.Start(ctx)
	g.Go(func() error {
		level.Info(logger).Log("msg", "listening", "addr", cfg.ListenAddr)
		return http.ListenAndServe(ctx, cfg.ListenAddr, handler)
	})

	err = g.Wait()
	stopRefresh()
	if err != nil && !errors.Is(err, nhttp.ErrServerClosed) {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}
