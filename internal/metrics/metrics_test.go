package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAddImportRows(t *testing.T) {
	before := testutil.ToFloat64(importRowsTotal.WithLabelValues("created"))
	AddImportRows(3, 1, 2)
	assert.Equal(t, before+3, testutil.ToFloat64(importRowsTotal.WithLabelValues("created")))
}

func TestIncGatewayRequest(t *testing.T) {
	before := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("gemini", "complete", "failure"))
	IncGatewayRequest("gemini", "complete", false)
	assert.Equal(t, before+1, testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("gemini", "complete", "failure")))
}

func TestSetMonthlyUsage(t *testing.T) {
	SetMonthlyUsage("acme", 42)
	assert.Equal(t, float64(42), testutil.ToFloat64(monthlyUsage.WithLabelValues("acme")))
}
