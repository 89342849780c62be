package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(func() int { return 3 })
	m.Mutation("add_item")
	m.Mutation("add_item")
	m.StorageFailure("save")
	m.OrderSubmitted("COD", "success")
	m.Generation("recipe", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add_item")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFailures.WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("COD", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("recipe", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.openSessions))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.Mutation("clear")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `cart_mutations_total{op="clear"} 1`))
}
