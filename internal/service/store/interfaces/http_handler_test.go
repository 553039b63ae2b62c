package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/store/application"
	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

// 端到端地走 HTTP 层 + 应用层，只有出站端口是内存实现

type memOrderRepo struct {
	orders map[string]domain.Order
}

func (r *memOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *memOrderRepo) UpdateState(ctx context.Context, id string, state domain.OrderState) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.State = state
	r.orders[id] = order
	return nil
}

func (r *memOrderRepo) ScanOrders(ctx context.Context, fn func(batch []domain.Order) error) error {
	batch := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		batch = append(batch, order)
	}
	if len(batch) == 0 {
		return nil
	}
	return fn(batch)
}

type memProductRepo struct {
	products map[string]domain.Product
	names    []string
}

func (r *memProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	if _, ok := r.products[product.Name]; !ok {
		r.names = append(r.names, product.Name)
	}
	r.products[product.Name] = *product
	return nil
}

func (r *memProductRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	product, ok := r.products[name]
	if !ok {
		return nil, errors.Wrap(domain.ErrProductNotFound, name)
	}
	return &product, nil
}

func (r *memProductRepo) ListNames(ctx context.Context) ([]string, error) {
	return r.names, nil
}

type memLedger struct {
	stock map[string]int
}

func (l *memLedger) Get(ctx context.Context, product string) (*domain.StockRecord, error) {
	quantity, ok := l.stock[product]
	if !ok {
		return nil, errors.Wrap(domain.ErrProductNotFound, product)
	}
	return &domain.StockRecord{Product: product, Quantity: quantity}, nil
}

func (l *memLedger) Put(ctx context.Context, record *domain.StockRecord) error {
	l.stock[record.Product] = record.Quantity
	return nil
}

func (l *memLedger) ConditionalDecrement(ctx context.Context, product string, amount int) (port.DecrementResult, error) {
	quantity, ok := l.stock[product]
	if !ok {
		return port.DecrementNotFound, nil
	}
	if quantity < amount {
		return port.DecrementInsufficient, nil
	}
	l.stock[product] = quantity - amount
	return port.DecrementSuccess, nil
}

func (l *memLedger) Restore(ctx context.Context, product string, amount int) error {
	l.stock[product] += amount
	return nil
}

type memNotifier struct {
	sendErr error
}

func (n *memNotifier) SendStockCheck(ctx context.Context, notification *domain.StockNotification) error {
	return n.sendErr
}

type memReportStore struct{}

func (s *memReportStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	return "test-bucket", nil
}

type memLocker struct{}

func (l *memLocker) Acquire(resource string) (func(), error) {
	return func() {}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memLedger, *memNotifier) {
	t.Helper()
	ledger := &memLedger{stock: make(map[string]int)}
	notifier := &memNotifier{}
	svc := application.NewStoreApplicationService(
		&memOrderRepo{orders: make(map[string]domain.Order)},
		&memProductRepo{products: make(map[string]domain.Product)},
		ledger,
		notifier,
		&memReportStore{},
		&memLocker{},
		5*time.Second,
		noop.NewTracerProvider().Tracer("test"),
	)

	mux := http.NewServeMux()
	NewStoreHandler(svc).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, ledger, notifier
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func addWidget(t *testing.T, baseURL string, quantity int) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPut, baseURL+"/inventory",
		`{"product":"widget","category":"tools","description":"a widget","cost":9.99,"quantity":`+jsonInt(quantity)+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestPlaceOrderHandler_Success(t *testing.T) {
	server, ledger, _ := newTestServer(t)
	addWidget(t, server.URL, 10)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/order", `{"product":"widget","quantity":3}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["orderId"])
	assert.Equal(t, 7, ledger.stock["widget"])
}

func TestPlaceOrderHandler_ErrorStatusCodes(t *testing.T) {
	server, _, _ := newTestServer(t)
	addWidget(t, server.URL, 2)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "malformed json", body: `{"product":`, wantStatus: http.StatusBadRequest},
		{name: "missing product", body: `{"quantity":1}`, wantStatus: http.StatusBadRequest},
		{name: "non-positive quantity", body: `{"product":"widget","quantity":0}`, wantStatus: http.StatusBadRequest},
		{name: "unknown product", body: `{"product":"gadget","quantity":1}`, wantStatus: http.StatusNotFound},
		{name: "insufficient stock", body: `{"product":"widget","quantity":5}`, wantStatus: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, server.URL+"/order", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestPlaceOrderHandler_NotificationFailureCarriesOrderID(t *testing.T) {
	server, ledger, notifier := newTestServer(t)
	addWidget(t, server.URL, 10)
	notifier.sendErr = errors.New("broker unreachable")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/order", `{"product":"widget","quantity":2}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, body["orderId"])
	assert.Contains(t, body["message"], "notification")

	// 订单生效路径不回滚
	assert.Equal(t, 8, ledger.stock["widget"])
}

func TestPlaceOrderHandler_MethodNotAllowed(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/order")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAddInventoryHandler_MissingFieldsEchoesRequest(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, server.URL+"/inventory", `{"product":"widget"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, body["request"])
	echoed := body["request"].(map[string]interface{})
	assert.Equal(t, "widget", echoed["product"])
}

func TestCatalogHandler(t *testing.T) {
	server, ledger, _ := newTestServer(t)
	addWidget(t, server.URL, 5)
	ledger.stock["drained"] = 0

	resp, body := doJSON(t, http.MethodGet, server.URL+"/catalog", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"widget"}, body["available"])
}

func TestReportHandler(t *testing.T) {
	server, _, _ := newTestServer(t)
	addWidget(t, server.URL, 5)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/report", `{"mode":"inventory"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-bucket", body["bucket"])
	assert.Equal(t, float64(1), body["recordCount"])

	resp, body = doJSON(t, http.MethodPost, server.URL+"/report", `{"mode":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "mode")
}
