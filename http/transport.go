package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-currency-exchange/domain"
	"go-currency-exchange/exchange"
	"go-currency-exchange/ledger"
)

// Server dependencies for HTTP Server functions
type Server struct {
	Service exchange.Service
	router  chi.Router
}

func NewServer(s exchange.Service) *Server {
	server := &Server{
		Service: s,
		router:  chi.NewRouter(),
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/session", s.snapshot())
		r.Post("/session/base-amount", s.editAmount(s.Service.EditBaseAmount))
		r.Post("/session/buying-amount", s.editAmount(s.Service.EditBuyingAmount))
		r.Post("/session/base-currency", s.selectCurrency(s.Service.SelectBaseCurrency))
		r.Post("/session/buy-currency", s.selectCurrency(s.Service.SelectBuyCurrency))
		r.Post("/session/focus", s.focus())
		r.Post("/exchange", s.exchange())
		r.Get("/transactions", s.transactions())
		r.Post("/convert", s.convert())
	})
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// session the JSON view of an exchange.Snapshot
type session struct {
	Reference       domain.Currency    `json:"reference"`
	Base            domain.Currency    `json:"base"`
	Buy             domain.Quote       `json:"buy"`
	Currencies      []domain.Currency  `json:"currencies"`
	Rates           domain.Rates       `json:"rates"`
	Inputs          domain.InputValues `json:"inputs"`
	Focus           string             `json:"focus"`
	Balances        domain.Balances    `json:"balances"`
	BalanceExceeded bool               `json:"balanceExceeded"`
	CanExchange     bool               `json:"canExchange"`
	MarketOrder     string             `json:"marketOrder"`
}

func newSession(snap exchange.Snapshot) session {
	currencies := snap.Currencies
	if currencies == nil {
		currencies = []domain.Currency{}
	}
	return session{
		Reference:       snap.Reference,
		Base:            snap.Base,
		Buy:             snap.Buy,
		Currencies:      currencies,
		Rates:           snap.Rates,
		Inputs:          snap.Inputs,
		Focus:           snap.Focus.String(),
		Balances:        snap.Balances,
		BalanceExceeded: snap.BalanceExceeded,
		CanExchange:     snap.CanExchange,
		MarketOrder:     snap.MarketOrder,
	}
}

// snapshot produces HTTP handler returning the whole session
func (s *Server) snapshot() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, http.StatusOK, newSession(s.Service.Snapshot(r.Context())))
	}
}

// editAmount produces HTTP handler for text typed into one of the amount fields.
// Rejected text is not an error: the response tells it was not accepted.
func (s *Server) editAmount(edit func(context.Context, string) (domain.InputValues, bool)) http.HandlerFunc {

	type request struct {
		Text string `json:"text"`
	}

	type response struct {
		Accepted bool               `json:"accepted"`
		Inputs   domain.InputValues `json:"inputs"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !readJSON(rw, r, &request) {
			return
		}
		inputs, ok := edit(r.Context(), request.Text)
		writeJSON(rw, http.StatusOK, response{Accepted: ok, Inputs: inputs})
	}
}

// selectCurrency produces HTTP handler for picking a currency in one of the selectors
func (s *Server) selectCurrency(pick func(context.Context, domain.Currency) error) http.HandlerFunc {

	type request struct {
		Currency domain.Currency `json:"currency"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !readJSON(rw, r, &request) {
			return
		}
		if err := pick(r.Context(), request.Currency); err != nil {
			writeError(rw, http.StatusBadRequest, "unknown currency")
			return
		}
		writeJSON(rw, http.StatusOK, newSession(s.Service.Snapshot(r.Context())))
	}
}

// focus produces HTTP handler for the buying field gaining or losing focus
func (s *Server) focus() http.HandlerFunc {

	type request struct {
		Buying bool `json:"buying"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !readJSON(rw, r, &request) {
			return
		}
		f := exchange.FocusBase
		if request.Buying {
			f = exchange.FocusBuying
		}
		s.Service.SetFocus(r.Context(), f)
		rw.WriteHeader(http.StatusNoContent)
	}
}

// exchange produces HTTP handler committing the current inputs
func (s *Server) exchange() http.HandlerFunc {

	type response struct {
		Transaction domain.Transaction `json:"transaction"`
		Balances    domain.Balances    `json:"balances"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		tx, balances, err := s.Service.Exchange(r.Context())
		switch {
		case errors.Is(err, exchange.ErrBalanceExceeded),
			errors.Is(err, exchange.ErrNothingToExchange),
			errors.Is(err, exchange.ErrNoRates):
			writeError(rw, http.StatusConflict, err.Error())
			return
		case err != nil:
			writeError(rw, http.StatusInternalServerError, "failed exchange")
			return
		}
		writeJSON(rw, http.StatusOK, response{
			Transaction: tx,
			Balances:    balances,
		})
	}
}

// transactions produces HTTP handler listing committed transactions by day
func (s *Server) transactions() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		days := s.Service.Transactions(r.Context())
		if days == nil {
			days = []ledger.Day{}
		}
		writeJSON(rw, http.StatusOK, days)
	}
}

// convert produces HTTP handler for one-off currency conversions
func (s *Server) convert() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		FromCurrency domain.Currency
		ToCurrency   domain.Currency
		Amount       domain.Amount
	}

	// response for marshalling JSON responses to return to clients
	type response struct {
		Exchange domain.Rate   `json:"exchange"`
		Amount   domain.Amount `json:"amount"`
		Original domain.Amount `json:"original"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !readJSON(rw, r, &request) {
			return
		}

		result, err := s.Service.Convert(r.Context(), request.Amount, request.FromCurrency, request.ToCurrency)
		if err != nil {
			writeError(rw, http.StatusBadRequest, "failed conversion")
			return
		}

		writeJSON(rw, http.StatusOK, response{
			Exchange: result.Rate,
			Amount:   result.Amount,
			Original: request.Amount,
		})
	}
}

// readJSON decodes the request body into v, answering 400 itself on failure
func readJSON(rw http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request")
		return false
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}

// ReadHeaderTimeout applied by ListenAndServe
const ReadHeaderTimeout = 5 * time.Second

// ListenAndServe serves handler on addr until ctx is done, then shuts down gracefully
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ReadHeaderTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
