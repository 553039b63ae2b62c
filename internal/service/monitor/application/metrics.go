// internal/service/monitor/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_stock_notifications_processed_total",
		Help: "Stock check notifications consumed.",
	})

	alertsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_low_stock_alerts_total",
		Help: "Low stock alerts published.",
	})
)
