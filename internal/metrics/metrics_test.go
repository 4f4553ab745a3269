package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/{id}", "200"))
	RecordHTTPRequest("GET", "/api/orders/{id}", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/{id}", "200"))
	assert.Equal(t, before+1, after)
}

func TestOrderCreated_Kind(t *testing.T) {
	before := testutil.ToFloat64(ordersCreated.WithLabelValues("guest", "cod"))
	OrderCreated(true, "cod")
	assert.Equal(t, before+1, testutil.ToFloat64(ordersCreated.WithLabelValues("guest", "cod")))
}

func TestNotification(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("orderShipped", "sent"))
	Notification("orderShipped", "sent")
	Notification("orderShipped", "sent")
	assert.Equal(t, before+2, testutil.ToFloat64(notifications.WithLabelValues("orderShipped", "sent")))
}
