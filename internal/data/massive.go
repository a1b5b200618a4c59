// Package data: Massive-backed Provider implementation.
//
// This file retrieves spot prices and option chain quotes via Massive HTTP
// APIs.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Supports pagination, rate-limiting retries, and fallback providers
//   - Logging is intentionally verbose at Debug/Trace levels for diagnostics
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/vol-solver/internal/logger"
)

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider

	// sleep pauses between rate-limit retries; nil means time.Sleep.
	sleep func(time.Duration)
}

// NewMassiveDataProvider constructs a Massive-backed quote provider.
//
// It initializes an HTTP client with sensible defaults for timeouts,
// connection pooling, HTTP/2 support, and gzip decompression.
func NewMassiveDataProvider(apiKey string) Provider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: "https://api.massive.com",
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetSpot returns the latest daily close for the underlying at or before
// asOf, using the aggregates endpoint.
func (massiveDataProv *massiveDataProvider) GetSpot(underlying string, asOf time.Time) (float64, error) {
	logger.Debugf("spot lookup: %s as of %s", underlying, asOf.Format("2006-01-02"))

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=desc&limit=1&apiKey=%s",
		massiveDataProv.BaseURL,
		underlying,
		asOf.AddDate(0, 0, -7).Format("2006-01-02"),
		asOf.Format("2006-01-02"),
		massiveDataProv.APIKey,
	)

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", massiveDataProv.APIKey)

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return 0, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("massive aggs status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var body struct {
		Results []struct {
			Close float64 `json:"c"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("parsing massive response: %w", err)
	}
	if len(body.Results) == 0 {
		if massiveDataProv.secondary != nil {
			logger.Tracef("no spot bars, delegating to secondary provider")
			return massiveDataProv.secondary.GetSpot(underlying, asOf)
		}
		return 0, fmt.Errorf("no spot bars for %s", underlying)
	}
	return body.Results[0].Close, nil
}

// massiveChainEntry represents a single contract in Massive's option chain
// snapshot response.
type massiveChainEntry struct {
	Details struct {
		ContractType string  `json:"contract_type"`
		ExpiryDate   string  `json:"expiration_date"`
		StrikePrice  float64 `json:"strike_price"`
	} `json:"details"`
	LastQuote struct {
		Bid float64 `json:"bid"`
		Ask float64 `json:"ask"`
	} `json:"last_quote"`
	LastTrade struct {
		Price float64 `json:"price"`
	} `json:"last_trade"`
}

// massiveChainResp models the paginated chain snapshot response.
type massiveChainResp struct {
	Results   []massiveChainEntry `json:"results"`
	Status    string              `json:"status"`
	RequestID string              `json:"request_id"`
	NextURL   string              `json:"next_url"`
}

// GetQuotes retrieves the option chain snapshot for the underlying.
//
// Handles pagination via next_url and converts each contract into a Quote.
// Contracts with malformed expiry dates are skipped.
func (massiveDataProv *massiveDataProvider) GetQuotes(underlying string, asOf time.Time) ([]Quote, error) {
	logger.Tracef("fetching option chain: %s", underlying)

	out := []Quote{}

	// Build base URL
	chainURL, err := url.Parse(massiveDataProv.BaseURL + "/v3/snapshot/options/" + underlying)
	if err != nil {
		return nil, err
	}

	query := chainURL.Query()
	query.Set("limit", "250")
	query.Set("apiKey", massiveDataProv.APIKey)
	chainURL.RawQuery = query.Encode()
	reqURL := chainURL.String()

	// Handle pagination
	for reqURL != "" {
		logger.Debugf("chain request URL: %s", reqURL)

		req, err := http.NewRequest("GET", reqURL, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "massive-client/1.0")

		resp, err := massiveDataProv.processGetRequest(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if len(body) == 0 {
			return nil, fmt.Errorf("empty response body")
		}

		if resp.StatusCode != http.StatusOK {
			var dbg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &dbg)

			logger.Errorf("massive chain API error status=%d message=%s", resp.StatusCode, dbg.Message)
			return nil, fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
		}

		var massiveResp massiveChainResp
		if err := json.Unmarshal(body, &massiveResp); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		logger.Tracef("received %d contracts", len(massiveResp.Results))

		for _, result := range massiveResp.Results {
			expiry, err := time.Parse("2006-01-02", result.Details.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}

			out = append(out, Quote{
				Underlying: underlying,
				OptionType: result.Details.ContractType,
				Strike:     result.Details.StrikePrice,
				Expiry:     expiry,
				Bid:        result.LastQuote.Bid,
				Ask:        result.LastQuote.Ask,
				Last:       result.LastTrade.Price,
			})
		}

		reqURL = massiveResp.NextURL
	}

	if len(out) == 0 && massiveDataProv.secondary != nil {
		logger.Tracef("empty chain, delegating to secondary provider")
		return massiveDataProv.secondary.GetQuotes(underlying, asOf)
	}
	return out, nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Retries indefinitely on HTTP 429
//   - Sleeps until the next minute boundary
//   - Returns immediately on success (<400)
//   - Returns an error for other status codes
func (massiveDataProv *massiveDataProvider) processGetRequest(req *http.Request) (*http.Response, error) {
	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		// Success
		if resp.StatusCode < 400 {
			return resp, nil
		}

		// Handle per-minute rate limit (commonly 429)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			// Sleep until the next minute boundary
			now := time.Now()
			sleepDuration := time.Until(now.Truncate(time.Minute).Add(time.Minute))

			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			wait := massiveDataProv.sleep
			if wait == nil {
				wait = time.Sleep
			}
			wait(sleepDuration)
			continue
		}

		return resp, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
