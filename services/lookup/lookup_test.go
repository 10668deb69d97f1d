package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"proteinrank-go-worker/services/scorer"
	"proteinrank-go-worker/structs"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nutellaBody = `{
  "code": "3017620422003",
  "status": 1,
  "product": {
    "product_name": "Nutella",
    "serving_size": "15 g",
    "nutrition_data_per": "100g",
    "nutriments": {
      "proteins_100g": 6.3,
      "fat_100g": 30.9,
      "carbohydrates_100g": 57.5,
      "fiber_100g": "3.4",
      "energy-kcal_100g": 539
    }
  }
}`

func newTestClient(url string) *Client {
	return NewClient(structs.LookupConfig{
		BaseURL:         url,
		Timeout:         2 * time.Second,
		UserAgent:       "proteinrank-test",
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	})
}

func TestClient_LookupFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003.json", r.URL.Path)
		assert.Equal(t, "proteinrank-test", r.Header.Get("User-Agent"))
		w.Write([]byte(nutellaBody))
	}))
	defer server.Close()

	product, err := newTestClient(server.URL).Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, "Nutella", product.ProductName)
	assert.Equal(t, "15 g", product.ServingSize)
	assert.Equal(t, "100g", product.NutritionDataPer)
	assert.Equal(t, "3017620422003", product.Code)

	input := scorer.ExtractNutrients(product)
	assert.Equal(t, structs.NutrientInput{Protein: 6.3, Fat: 30.9, Carbohydrates: 57.5, Fiber: 3.4}, input)
}

func TestClient_LookupUnknown(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status zero": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"0000","status":0,"status_verbose":"product not found"}`))
		},
		"not found": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":0}`))
		},
		"product null": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":1,"product":null}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			product, err := newTestClient(server.URL).Lookup(context.Background(), "0000")
			assert.Nil(t, product)
			assert.True(t, errors.Is(err, ErrUnknownBarcode))
			assert.False(t, errors.Is(err, ErrNetworkFailure))
		})
	}
}

func TestClient_LookupNetworkFailure(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"product": {`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			_, err := newTestClient(server.URL).Lookup(context.Background(), "123")
			assert.True(t, errors.Is(err, ErrNetworkFailure))
		})
	}
}

func TestClient_LookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(structs.LookupConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Lookup(context.Background(), "123")
	assert.True(t, errors.Is(err, ErrNetworkFailure))
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 4; i++ {
		_, err := client.Lookup(context.Background(), "123")
		assert.True(t, errors.Is(err, ErrNetworkFailure))
	}
	// 熔斷後不再打到上游
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CallerDeadlineDoesNotTripBreaker(t *testing.T) {
	var slow int32 = 1
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&slow) == 1 {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
				return
			}
		}
		w.Write([]byte(nutellaBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := client.Lookup(ctx, "3017620422003")
		cancel()
		assert.True(t, errors.Is(err, ErrNetworkFailure))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	}

	// 上游恢復後，新的呼叫不會被熔斷擋下
	atomic.StoreInt32(&slow, 0)
	product, err := client.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, "Nutella", product.ProductName)
}

func TestClient_UnknownDoesNotTripBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"status":0}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 5; i++ {
		_, err := client.Lookup(context.Background(), "123")
		assert.True(t, errors.Is(err, ErrUnknownBarcode))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClient_LookupCancelledContext(t *testing.T) {
	client := NewClient(structs.LookupConfig{BaseURL: "http://127.0.0.1:1", RateLimit: 0.001, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Lookup(ctx, "123")
	assert.True(t, errors.Is(err, ErrNetworkFailure))
}

func TestParseProduct(t *testing.T) {
	product, ok := ParseProduct([]byte(`{"product":{"product_name":42,"nutriments":"n/a"}}`))
	require.True(t, ok)
	assert.Equal(t, "42", product.ProductName)
	assert.Nil(t, product.Nutriments)

	_, ok = ParseProduct([]byte(`{"status":0}`))
	assert.False(t, ok)

	_, ok = ParseProduct(nil)
	assert.False(t, ok)
}
