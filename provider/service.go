package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"go-currency-exchange/domain"
)

// ApiUrlBase currencyfreaks latest rates endpoint. Rates are quoted against USD.
const ApiUrlBase = "https://api.currencyfreaks.com/v2.0/rates/latest"

// ErrBadStatus the provider answered with a non-2xx status
var ErrBadStatus = errors.New("unexpected http status")

// Service wraps a REST API serving the latest exchange rates
type Service interface {
	// Latest loads the current rates, quoted against the provider's reference currency
	Latest(ctx context.Context) (domain.Rates, error)
}

// service currencyfreaks style API: GET {url}?apikey={key} answering {"rates": {...}}
type service struct {
	// url API endpoint
	url string

	// apiKey sent as the apikey query parameter, when not empty
	apiKey string

	// client for HTTP requests
	client http.Client
}

// NewService constructs a valid Service. An empty url selects ApiUrlBase.
func NewService(apiUrl, apiKey string, timeout time.Duration) Service {
	if apiUrl == "" {
		apiUrl = ApiUrlBase
	}
	return &service{
		url:    apiUrl,
		apiKey: apiKey,
		client: http.Client{
			Timeout: timeout,
		},
	}
}

// Latest loads the latest rates. Rate values may be JSON numbers or numeric
// strings; currencyfreaks sends strings.
func (s *service) Latest(ctx context.Context) (domain.Rates, error) {
	type Response struct {
		Rates map[string]decimal.Decimal // maps currency codes to rates
	}

	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if s.apiKey != "" {
		q := u.Query()
		q.Set("apikey", s.apiKey)
		u.RawQuery = q.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return nil, fmt.Errorf("http get: %w: %v", ErrBadStatus, httpResponse.Status)
	}

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}

	var response Response
	err = json.Unmarshal(bytes, &response)
	if err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if len(response.Rates) == 0 {
		return nil, errors.New("decoding json: no rates")
	}

	rates := domain.Rates{}
	for k, v := range response.Rates {
		if !v.IsPositive() {
			return nil, fmt.Errorf("bad rate value for %v: %v", k, v)
		}
		rates[domain.Currency(k)] = domain.Rate(v.InexactFloat64())
	}

	return rates, nil
}
