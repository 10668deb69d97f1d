// Package lookup fetches product records from the Open Food Facts product API.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"proteinrank-go-worker/services"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/services/trackLog"
	"proteinrank-go-worker/structs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var (
	// ErrUnknownBarcode means the food database has no product for the barcode.
	ErrUnknownBarcode = errors.New("unknown barcode")
	// ErrNetworkFailure wraps transport errors, timeouts, non-2xx responses,
	// unreadable bodies and an open circuit breaker.
	ErrNetworkFailure = errors.New("food database unreachable")
)

// Fetcher looks up a product by barcode.
type Fetcher interface {
	Lookup(ctx context.Context, barcode string) (*structs.Product, error)
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(config structs.LookupConfig) *Client {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := config.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:    "openfoodfacts",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			trackLog.Error(fmt.Sprintf("[lookup] breaker %s: %s -> %s", name, from, to), true)
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Lookup returns the product for barcode. An absent product yields ErrUnknownBarcode;
// anything that keeps the upstream from answering yields an error wrapping
// ErrNetworkFailure. Failed requests are not retried.
func (c *Client) Lookup(ctx context.Context, barcode string) (*structs.Product, error) {
	start := time.Now()
	product, err := c.lookup(ctx, barcode)
	metrics.LookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.LookupTotal.WithLabelValues("found").Inc()
	case errors.Is(err, ErrUnknownBarcode):
		metrics.LookupTotal.WithLabelValues("unknown").Inc()
	default:
		metrics.LookupTotal.WithLabelValues("failed").Inc()
		trackLog.WithFields(logrus.Fields{"task": "lookup", "barcode": barcode}).Error(err.Error())
	}
	return product, err
}

func (c *Client) lookup(ctx context.Context, barcode string) (*structs.Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}

	endpoint := c.baseURL + "/api/v0/product/" + url.PathEscape(barcode) + ".json"
	header := map[string]string{"User-Agent": c.userAgent}

	// 熔斷器只計算上游失敗，查無商品與呼叫端自己放棄都不算
	var callerErr error
	result, err := c.breaker.Execute(func() (interface{}, error) {
		status, body, err := services.DoRequest(ctx, c.httpClient, http.MethodGet, endpoint, header, nil)
		if err != nil {
			if ctx.Err() != nil {
				callerErr = err
				return nil, nil
			}
			return nil, err
		}
		if status == http.StatusNotFound {
			return []byte(nil), nil
		}
		if status < 200 || status >= 300 {
			return nil, fmt.Errorf("unexpected status %d", status)
		}
		if !gjson.ValidBytes(body) {
			return nil, errors.New("malformed response body")
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetworkFailure, barcode, err)
	}
	if callerErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetworkFailure, barcode, callerErr)
	}

	product, ok := ParseProduct(result.([]byte))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBarcode, barcode)
	}
	if product.Code == "" {
		product.Code = barcode
	}
	return product, nil
}

// ParseProduct decodes an Open Food Facts response. It reports false when the body
// carries no product object. Name and serving fields are read as strings whatever
// their JSON type; nutriments are kept raw.
func ParseProduct(body []byte) (*structs.Product, bool) {
	if len(body) == 0 {
		return nil, false
	}
	node := gjson.GetBytes(body, "product")
	if !node.Exists() || !node.IsObject() {
		return nil, false
	}

	product := &structs.Product{
		Code:             gjson.GetBytes(body, "code").String(),
		ProductName:      node.Get("product_name").String(),
		ServingSize:      node.Get("serving_size").String(),
		NutritionDataPer: node.Get("nutrition_data_per").String(),
	}
	if nutriments := node.Get("nutriments"); nutriments.IsObject() {
		if values, ok := nutriments.Value().(map[string]interface{}); ok {
			product.Nutriments = values
		}
	}
	return product, true
}
