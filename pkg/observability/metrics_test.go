package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveRequest("GET", "/api/v1/inventories/", 200, 12*time.Millisecond)
	m.ObserveDecision("inventory", "read", "allow", time.Millisecond)
	m.EdgeCacheHitsTotal.Inc()

	families, err := registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["commander_http_requests_total"])
	assert.True(t, names["commander_authz_decisions_total"])
	assert.True(t, names["commander_edge_cache_hits_total"])
}
