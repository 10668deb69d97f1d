package session

import (
	"context"
	"errors"
	"fmt"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/structs"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher 讓測試決定每個條碼什麼時候回應
type gatedFetcher struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	products map[string]*structs.Product
	errs     map[string]error
	calls    []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:    make(map[string]chan struct{}),
		products: make(map[string]*structs.Product),
		errs:     make(map[string]error),
	}
}

func (f *gatedFetcher) gate(barcode string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[barcode]
	if !ok {
		g = make(chan struct{})
		f.gates[barcode] = g
	}
	return g
}

func (f *gatedFetcher) release(barcode string) {
	close(f.gate(barcode))
}

func (f *gatedFetcher) Lookup(ctx context.Context, barcode string) (*structs.Product, error) {
	f.mu.Lock()
	f.calls = append(f.calls, barcode)
	f.mu.Unlock()

	<-f.gate(barcode)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[barcode]; ok {
		return nil, err
	}
	if p, ok := f.products[barcode]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", lookup.ErrUnknownBarcode, barcode)
}

func product(name string, protein float64) *structs.Product {
	return &structs.Product{
		ProductName: name,
		Nutriments: map[string]interface{}{
			"proteins_100g":      protein,
			"fat_100g":           5.0,
			"carbohydrates_100g": 5.0,
		},
	}
}

func TestSession_ScanLoadsProduct(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.products["111"] = product("Tuna", 25)
	s := New("s1", fetcher)

	state, issued := s.Scan(context.Background(), "111")
	require.True(t, issued)
	assert.Equal(t, enums.PhaseLoading, state.Phase)
	assert.Equal(t, uint64(1), state.Seq)

	fetcher.release("111")
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, enums.PhaseLoaded, snap.Scan.Phase)
	require.NotNil(t, snap.Scan.Product)
	assert.Equal(t, "2.5", snap.Scan.Product.Score)
	assert.Equal(t, enums.TierHigh, snap.Scan.Product.Tier)
}

func TestSession_LatestScanWinsRegardlessOfResponseOrder(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.products["111"] = product("Old", 25)
	fetcher.products["222"] = product("New", 5)
	s := New("s1", fetcher)

	before := testutil.ToFloat64(metrics.StaleResponses)

	_, issued := s.Scan(context.Background(), "111")
	require.True(t, issued)
	_, issued = s.Scan(context.Background(), "222")
	require.True(t, issued)

	// 第二個先回來，第一個晚到
	fetcher.release("222")
	require.Eventually(t, func() bool {
		return s.Snapshot().Scan.Phase == enums.PhaseLoaded
	}, time.Second, 5*time.Millisecond)
	fetcher.release("111")
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, "222", snap.Scan.Barcode)
	assert.Equal(t, "New", snap.Scan.Product.ProductName)
	assert.Equal(t, uint64(2), snap.Scan.Seq)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StaleResponses))
}

func TestSession_RescanOfSameBarcodeIsIgnored(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.products["111"] = product("Tuna", 25)
	s := New("s1", fetcher)

	s.Scan(context.Background(), "111")
	state, issued := s.Scan(context.Background(), "111")
	assert.False(t, issued)
	assert.Equal(t, enums.PhaseLoading, state.Phase)

	fetcher.release("111")
	s.Wait()

	_, issued = s.Scan(context.Background(), "111")
	assert.False(t, issued)
	assert.Equal(t, []string{"111"}, fetcher.calls)
}

func TestSession_UnknownAndFailedLookups(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.errs["500"] = fmt.Errorf("%w: boom", lookup.ErrNetworkFailure)
	s := New("s1", fetcher)

	s.Scan(context.Background(), "404")
	fetcher.release("404")
	s.Wait()
	snap := s.Snapshot()
	assert.Equal(t, enums.PhaseUnknown, snap.Scan.Phase)
	assert.Equal(t, enums.UnknownFood, snap.Scan.Message)
	assert.Nil(t, snap.Scan.Product)

	s.Scan(context.Background(), "500")
	fetcher.release("500")
	s.Wait()
	snap = s.Snapshot()
	assert.Equal(t, enums.PhaseFailed, snap.Scan.Phase)
	assert.Contains(t, snap.Scan.Error, "boom")

	// 失敗後可以重掃
	fetcher.mu.Lock()
	delete(fetcher.errs, "500")
	fetcher.products["500"] = product("Retry", 10)
	fetcher.mu.Unlock()
	_, issued := s.Scan(context.Background(), "500")
	assert.True(t, issued)
	s.Wait()
	assert.Equal(t, enums.PhaseLoaded, s.Snapshot().Scan.Phase)
}

func TestSession_EditAndSubscribe(t *testing.T) {
	s := New("s1", newGatedFetcher())
	updates, cancel := s.Subscribe()
	defer cancel()

	first := <-updates
	assert.Equal(t, enums.PhaseIdle, first.Scan.Phase)

	_, err := s.Edit(enums.FieldProtein, 20)
	require.NoError(t, err)
	manual, err := s.Edit(enums.FieldFat, 10)
	require.NoError(t, err)
	assert.Equal(t, "2.0", manual.Score.Score)

	// 只會拿到最新的一筆
	latest := <-updates
	assert.Equal(t, structs.NutrientInput{Protein: 20, Fat: 10}, latest.Manual.Input)
	select {
	case extra := <-updates:
		t.Fatalf("unexpected snapshot %+v", extra)
	default:
	}

	_, err = s.Edit("salt", 1)
	assert.Error(t, err)
}

func TestSession_CancelSubscriptionClosesChannel(t *testing.T) {
	s := New("s1", newGatedFetcher())
	updates, cancel := s.Subscribe()
	<-updates
	cancel()
	cancel()

	_, ok := <-updates
	assert.False(t, ok)
	_, err := s.Edit(enums.FieldFiber, 1)
	assert.NoError(t, err)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(newGatedFetcher())
	s := registry.Create()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, registry.Len())

	got, err := registry.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = registry.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, 0, registry.Expire(time.Hour))
	s.mu.Lock()
	s.lastActive = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	assert.Equal(t, 1, registry.Expire(time.Hour))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_ExpireKeepsWatchedSessions(t *testing.T) {
	registry := NewRegistry(newGatedFetcher())
	s := registry.Create()
	_, cancel := s.Subscribe()

	s.mu.Lock()
	s.lastActive = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	assert.Equal(t, 0, registry.Expire(time.Hour))
	_, err := registry.Get(s.ID)
	require.NoError(t, err)

	cancel()
	assert.Equal(t, 1, registry.Expire(time.Hour))
}
