package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/monitor/domain"
)

type fakeStockReader struct {
	stock  map[string]int
	getErr error
}

func (r *fakeStockReader) Get(ctx context.Context, product string) (int, bool, error) {
	if r.getErr != nil {
		return 0, false, r.getErr
	}
	quantity, ok := r.stock[product]
	return quantity, ok, nil
}

// thresholdRule 复刻默认规则 quantity < threshold 的语义
type thresholdRule struct {
	threshold int
	evalErr   error
}

func (r *thresholdRule) ShouldAlert(product string, quantity int) (bool, error) {
	if r.evalErr != nil {
		return false, r.evalErr
	}
	return quantity < r.threshold, nil
}

type fakeAlertProducer struct {
	alerts  []domain.LowStockAlert
	sendErr error
}

func (p *fakeAlertProducer) SendLowStock(ctx context.Context, alert *domain.LowStockAlert) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.alerts = append(p.alerts, *alert)
	return nil
}

func newTestService(reader *fakeStockReader, rule *thresholdRule, producer *fakeAlertProducer) *MonitorApplicationService {
	return NewMonitorApplicationService(reader, rule, producer, noop.NewTracerProvider().Tracer("test"))
}

func TestCheckStock_FiresAlertBelowThreshold(t *testing.T) {
	reader := &fakeStockReader{stock: map[string]int{"widget": 1}}
	producer := &fakeAlertProducer{}
	svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

	svc.CheckStock(context.Background(), &domain.StockNotification{Product: "widget"})

	require.Len(t, producer.alerts, 1)
	alert := producer.alerts[0]
	assert.Equal(t, "widget", alert.Product)
	assert.Equal(t, 1, alert.Quantity)
	assert.Equal(t, "widget has low quantity (1 left)", alert.Message)
}

func TestCheckStock_NoAlertAtOrAboveThreshold(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "exactly at threshold", quantity: 5},
		{name: "well above threshold", quantity: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeStockReader{stock: map[string]int{"widget": tt.quantity}}
			producer := &fakeAlertProducer{}
			svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

			svc.CheckStock(context.Background(), &domain.StockNotification{Product: "widget"})
			assert.Empty(t, producer.alerts)
		})
	}
}

func TestCheckStock_UnknownProductIsSkipped(t *testing.T) {
	reader := &fakeStockReader{stock: map[string]int{}}
	producer := &fakeAlertProducer{}
	svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

	svc.CheckStock(context.Background(), &domain.StockNotification{Product: "phantom"})
	assert.Empty(t, producer.alerts)
}

func TestCheckStock_SwallowsDependencyErrors(t *testing.T) {
	t.Run("ledger read failure", func(t *testing.T) {
		reader := &fakeStockReader{getErr: errors.New("redis down")}
		producer := &fakeAlertProducer{}
		svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

		// 不 panic、不上抛，通知被静默丢弃
		svc.CheckStock(context.Background(), &domain.StockNotification{Product: "widget"})
		assert.Empty(t, producer.alerts)
	})

	t.Run("rule evaluation failure", func(t *testing.T) {
		reader := &fakeStockReader{stock: map[string]int{"widget": 1}}
		producer := &fakeAlertProducer{}
		svc := newTestService(reader, &thresholdRule{threshold: 5, evalErr: errors.New("bad rule")}, producer)

		svc.CheckStock(context.Background(), &domain.StockNotification{Product: "widget"})
		assert.Empty(t, producer.alerts)
	})

	t.Run("alert publish failure", func(t *testing.T) {
		reader := &fakeStockReader{stock: map[string]int{"widget": 1}}
		producer := &fakeAlertProducer{sendErr: errors.New("broker down")}
		svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

		svc.CheckStock(context.Background(), &domain.StockNotification{Product: "widget"})
		assert.Empty(t, producer.alerts)
	})
}

func TestCheckStock_RedeliveryIsIdempotent(t *testing.T) {
	reader := &fakeStockReader{stock: map[string]int{"widget": 2}}
	producer := &fakeAlertProducer{}
	svc := newTestService(reader, &thresholdRule{threshold: 5}, producer)

	event := &domain.StockNotification{Product: "widget", OrderID: "order-1"}
	svc.CheckStock(context.Background(), event)
	svc.CheckStock(context.Background(), event)

	// 每次投递都基于当前余量重新判断，重复投递产生重复告警而非错误状态
	require.Len(t, producer.alerts, 2)
	assert.Equal(t, producer.alerts[0], producer.alerts[1])
}
