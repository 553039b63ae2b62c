// internal/service/store/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Order placement outcomes by result.",
	}, []string{"result"})

	reportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reports_generated_total",
		Help: "Generated report artifacts by mode.",
	}, []string{"mode"})
)
