package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

// ---- 内存实现的出站端口，仅用于测试 ----

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]domain.Order
	saveErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *fakeOrderRepo) UpdateState(ctx context.Context, id string, state domain.OrderState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.State = state
	r.orders[id] = order
	return nil
}

func (r *fakeOrderRepo) ScanOrders(ctx context.Context, fn func(batch []domain.Order) error) error {
	r.mu.Lock()
	batch := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		batch = append(batch, order)
	}
	r.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	return fn(batch)
}

type fakeProductRepo struct {
	products map[string]domain.Product
	names    []string
	listErr  error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]domain.Product)}
}

func (r *fakeProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	if _, ok := r.products[product.Name]; !ok {
		r.names = append(r.names, product.Name)
	}
	r.products[product.Name] = *product
	return nil
}

func (r *fakeProductRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	product, ok := r.products[name]
	if !ok {
		return nil, errors.Wrap(domain.ErrProductNotFound, name)
	}
	return &product, nil
}

func (r *fakeProductRepo) ListNames(ctx context.Context) ([]string, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.names, nil
}

// fakeLedger 和真实的 Redis 适配器一样，条件扣减在锁内一步完成
type fakeLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{stock: make(map[string]int)}
}

func (l *fakeLedger) Get(ctx context.Context, product string) (*domain.StockRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	quantity, ok := l.stock[product]
	if !ok {
		return nil, errors.Wrap(domain.ErrProductNotFound, product)
	}
	return &domain.StockRecord{Product: product, Quantity: quantity}, nil
}

func (l *fakeLedger) Put(ctx context.Context, record *domain.StockRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[record.Product] = record.Quantity
	return nil
}

func (l *fakeLedger) ConditionalDecrement(ctx context.Context, product string, amount int) (port.DecrementResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
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

func (l *fakeLedger) Restore(ctx context.Context, product string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[product] += amount
	return nil
}

func (l *fakeLedger) quantity(product string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[product]
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []domain.StockNotification
	sendErr error
}

func (n *fakeNotifier) SendStockCheck(ctx context.Context, notification *domain.StockNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, *notification)
	return nil
}

type fakeReportStore struct {
	uploads   map[string][]byte
	uploadErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{uploads: make(map[string][]byte)}
}

func (s *fakeReportStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads[key] = data
	return "test-bucket", nil
}

type fakeLocker struct {
	acquired []string
	released int
}

func (l *fakeLocker) Acquire(resource string) (func(), error) {
	l.acquired = append(l.acquired, resource)
	return func() { l.released++ }, nil
}

type testEnv struct {
	svc         *StoreApplicationService
	orderRepo   *fakeOrderRepo
	productRepo *fakeProductRepo
	ledger      *fakeLedger
	notifier    *fakeNotifier
	reportStore *fakeReportStore
	locker      *fakeLocker
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orderRepo:   newFakeOrderRepo(),
		productRepo: newFakeProductRepo(),
		ledger:      newFakeLedger(),
		notifier:    &fakeNotifier{},
		reportStore: newFakeReportStore(),
		locker:      &fakeLocker{},
	}
	env.svc = NewStoreApplicationService(
		env.orderRepo, env.productRepo, env.ledger,
		env.notifier, env.reportStore, env.locker,
		5*time.Second,
		noop.NewTracerProvider().Tracer("test"),
	)
	return env
}

func (e *testEnv) addProduct(t *testing.T, name string, quantity int) {
	t.Helper()
	err := e.svc.AddInventory(context.Background(), &AddInventoryRequest{
		Product: name, Category: "tools", Description: "a " + name, Cost: 9.99, Quantity: quantity,
	})
	require.NoError(t, err)
}

// ---- PlaceOrder ----

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 10)

	resp, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "widget", Quantity: 3})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.OrderID)

	// 库存扣减了精确的数量
	assert.Equal(t, 7, env.ledger.stock["widget"])

	// 订单日志有且只有一条 CONFIRMED 记录
	saved, err := env.orderRepo.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateConfirmed, saved.State)
	assert.Len(t, env.orderRepo.orders, 1)

	// 通知携带商品名和订单号
	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, "widget", env.notifier.sent[0].Product)
	assert.Equal(t, resp.OrderID, env.notifier.sent[0].OrderID)
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name string
		req  *PlaceOrderRequest
	}{
		{name: "empty product", req: &PlaceOrderRequest{Product: "", Quantity: 1}},
		{name: "zero quantity", req: &PlaceOrderRequest{Product: "widget", Quantity: 0}},
		{name: "negative quantity", req: &PlaceOrderRequest{Product: "widget", Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.svc.PlaceOrder(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}

	// 校验失败不能产生任何副作用
	assert.Empty(t, env.orderRepo.orders)
	assert.Empty(t, env.notifier.sent)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "gadget", Quantity: 1})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	assert.Empty(t, env.notifier.sent)
}

func TestPlaceOrder_InsufficientStock_NoOverselling(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 2)

	resp, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "widget", Quantity: 5})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	// 账本保持原值，没有通知发出
	assert.Equal(t, 2, env.ledger.stock["widget"])
	assert.Empty(t, env.notifier.sent)

	// 补偿把 PENDING 订单标记为 FAILED，不留下孤儿订单
	for _, order := range env.orderRepo.orders {
		assert.Equal(t, domain.StateFailed, order.State)
	}
}

func TestPlaceOrder_NotificationFailure_OrderStillConfirmed(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 10)
	env.notifier.sendErr = errors.New("broker unreachable")

	resp, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "widget", Quantity: 3})

	// 错误可区分，响应仍携带订单号
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotificationNotSent))
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.OrderID)

	// 订单已生效，库存已扣减，不回滚
	saved, findErr := env.orderRepo.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, findErr)
	assert.Equal(t, domain.StateConfirmed, saved.State)
	assert.Equal(t, 7, env.ledger.stock["widget"])
}

func TestPlaceOrder_Concurrent_NoOverselling(t *testing.T) {
	env := newTestEnv()
	const initial = 50
	env.addProduct(t, "widget", initial)

	// 并发请求的总量刻意超过库存，迫使一部分被拒绝
	const workers = 20
	const perOrder = 4

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "widget", Quantity: perOrder})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		// 被拒绝的只能是库存不足，不允许出现其他失败
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "unexpected error: %v", err)
	}

	// 余量 = 初始量 - 成功订单扣减之和，且不为负
	final := env.ledger.quantity("widget")
	assert.Equal(t, initial-succeeded*perOrder, final)
	assert.GreaterOrEqual(t, final, 0)

	// 只要余量够就必须成功：50/4 = 12 单
	assert.Equal(t, initial/perOrder, succeeded)

	// 每笔成功订单恰好一条 CONFIRMED 记录、一条通知；失败订单全部补偿为 FAILED
	confirmed := 0
	for _, order := range env.orderRepo.orders {
		switch order.State {
		case domain.StateConfirmed:
			confirmed++
		case domain.StateFailed:
		default:
			t.Fatalf("order %s left in state %s", order.ID, order.State)
		}
	}
	assert.Equal(t, succeeded, confirmed)
	assert.Len(t, env.notifier.sent, succeeded)
}

func TestPlaceOrder_ExactStock_DrainsToZero(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 4)

	resp, err := env.svc.PlaceOrder(context.Background(), &PlaceOrderRequest{Product: "widget", Quantity: 4})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, env.ledger.stock["widget"])
}

// ---- AddInventory ----

func TestAddInventory_WritesCatalogAndLedger(t *testing.T) {
	env := newTestEnv()

	err := env.svc.AddInventory(context.Background(), &AddInventoryRequest{
		Product: "widget", Category: "tools", Description: "a widget", Cost: 12.5, Quantity: 7,
	})
	require.NoError(t, err)

	product, err := env.productRepo.FindByName(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, "tools", product.Category)
	assert.Equal(t, 7, env.ledger.stock["widget"])
}

func TestAddInventory_MissingFields(t *testing.T) {
	env := newTestEnv()

	err := env.svc.AddInventory(context.Background(), &AddInventoryRequest{Product: "widget"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Empty(t, env.ledger.stock)
}

func TestAddInventory_OverwritesExistingRecord(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 3)
	env.addProduct(t, "widget", 20)

	assert.Equal(t, 20, env.ledger.stock["widget"])
	assert.Len(t, env.productRepo.names, 1)
}

// ---- ListCatalog ----

func TestListCatalog_FiltersOutOfStock(t *testing.T) {
	env := newTestEnv()
	env.addProduct(t, "widget", 5)
	env.addProduct(t, "gizmo", 2)

	// 售罄商品无法通过入库接口制造（数量必须为正），直接落到账本里
	require.NoError(t, env.productRepo.Upsert(context.Background(), &domain.Product{Name: "gadget", Category: "tools", Description: "a gadget", Cost: 9.99}))
	env.ledger.stock["gadget"] = 0

	resp, err := env.svc.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"widget", "gizmo"}, resp.Available)
}

func TestListCatalog_SkipsProductsWithoutLedgerRecord(t *testing.T) {
	env := newTestEnv()
	// 目录里有但账本里没有的商品视为无货
	require.NoError(t, env.productRepo.Upsert(context.Background(), &domain.Product{Name: "phantom", Category: "x", Description: "y", Cost: 1}))
	env.addProduct(t, "widget", 1)

	resp, err := env.svc.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"widget"}, resp.Available)
}

func TestListCatalog_Empty(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Available)
}
