package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTotalByLabel(t *testing.T) {
	before := testutil.ToFloat64(ScoreTotal.WithLabelValues("HIGH", "manual"))
	ScoreTotal.WithLabelValues("HIGH", "manual").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ScoreTotal.WithLabelValues("HIGH", "manual")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	StaleResponses.Inc()
	ActiveStreams.Set(2)
	defer ActiveStreams.Set(0)

	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "proteinrank_stale_responses_total")
	assert.Contains(t, string(body), "proteinrank_active_streams 2")
}
