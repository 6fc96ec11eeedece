package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/models"
	"github.com/kvishal2109/magicofresinn/internal/pricing"
)

var errStoreDown = apperr.Unavailable("select", context.DeadlineExceeded)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]models.Product
	order    []string
	err      error
	conflict int
}

func newFakeProductRepo(products ...models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[string]models.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *fakeProductRepo) all() []models.Product {
	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *fakeProductRepo) List(context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.all(), nil
}

func (r *fakeProductRepo) ListByCategory(_ context.Context, category string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Product
	for _, p := range r.all() {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListByCatalog(_ context.Context, catalogID string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Product
	for _, p := range r.all() {
		if p.CatalogID == catalogID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Search(_ context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []models.Product
	needle := strings.ToLower(filter.Search)
	for _, p := range r.all() {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListBySizeKeys(_ context.Context, keys []string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	wanted := map[string]bool{}
	for _, k := range keys {
		wanted[k] = true
	}
	var out []models.Product
	for _, p := range r.all() {
		if wanted[pricing.SizeKeyFor(p)] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("product")
	}
	return &p, nil
}

func (r *fakeProductRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[id]
	return ok, r.err
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.conflict > 0 {
		r.conflict--
		return apperr.Conflict("product already exists")
	}
	if _, ok := r.products[p.ID]; ok {
		return apperr.Conflict("product already exists")
	}
	r.products[p.ID] = *p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakeProductRepo) Upsert(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.products[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, id string, updates map[string]any) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("product")
	}
	for col, v := range updates {
		switch col {
		case "name":
			p.Name = v.(string)
		case "category":
			p.Category = v.(string)
		case "subcategory":
			p.Subcategory = v.(string)
		case "in_stock":
			p.InStock = v.(bool)
		}
	}
	if v, ok := updates["price"]; ok {
		p.Price = v.(decimal.Decimal)
	}
	r.products[id] = p
	return &p, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperr.NotFound("product")
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) BulkUpdatePrices(_ context.Context, updates []models.PriceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		if _, ok := r.products[u.ProductID]; !ok {
			return apperr.NotFound("product")
		}
	}
	for _, u := range updates {
		p := r.products[u.ProductID]
		p.Price = u.Price
		r.products[u.ProductID] = p
	}
	return nil
}

func (r *fakeProductRepo) BulkUpdateInventory(_ context.Context, updates []models.InventoryUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		if _, ok := r.products[u.ProductID]; !ok {
			return apperr.NotFound("product")
		}
	}
	for _, u := range updates {
		p := r.products[u.ProductID]
		p.InStock = u.InStock
		p.Stock = u.Stock
		r.products[u.ProductID] = p
	}
	return nil
}

func (r *fakeProductRepo) RenameCategory(_ context.Context, oldName, newName string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.products {
		if p.Category == oldName {
			p.Category = newName
			r.products[id] = p
			n++
		}
	}
	return n, nil
}

func (r *fakeProductRepo) DeleteCategory(_ context.Context, category string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.products {
		if strings.EqualFold(p.Category, category) {
			delete(r.products, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeProductRepo) countCategory(category string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.products {
		if p.Category == category {
			n++
		}
	}
	return n
}

type staticChart models.SizeChart

func (c staticChart) Get(context.Context) models.SizeChart { return models.SizeChart(c) }

type fakeSizeRepo struct {
	mu    sync.Mutex
	rows  []models.SizeConfiguration
	err   error
	reads int
}

func (r *fakeSizeRepo) All(context.Context) ([]models.SizeConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.SizeConfiguration(nil), r.rows...), nil
}

func (r *fakeSizeRepo) ReplaceAll(_ context.Context, rows []models.SizeConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = make([]models.SizeConfiguration, len(rows))
	for i, row := range rows {
		row.ID = uint(i + 1)
		r.rows[i] = row
	}
	return nil
}

type fakeCategoryRepo struct {
	mu    sync.Mutex
	rows  []models.CategoryMetadata
	err   error
	reads int
}

func (r *fakeCategoryRepo) All(context.Context) ([]models.CategoryMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.CategoryMetadata(nil), r.rows...), nil
}

func (r *fakeCategoryRepo) ReplaceAll(_ context.Context, rows []models.CategoryMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append([]models.CategoryMetadata(nil), rows...)
	return nil
}

func (r *fakeCategoryRepo) SetImage(_ context.Context, category string, subcategory, image *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for i, row := range r.rows {
		sameSub := (row.SubcategoryName == nil && subcategory == nil) ||
			(row.SubcategoryName != nil && subcategory != nil && *row.SubcategoryName == *subcategory)
		if row.CategoryName == category && sameSub {
			r.rows[i].Image = image
			return nil
		}
	}
	r.rows = append(r.rows, models.CategoryMetadata{
		ID:              uint(len(r.rows) + 1),
		CategoryName:    category,
		SubcategoryName: subcategory,
		Image:           image,
	})
	return nil
}

// fakeOrderRepo serialises Update calls the way a row lock would.
type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]models.Order
	err     error
	creates int
	updates int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]models.Order{}}
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderLine(nil), o.Items...)
	return o
}

func (r *fakeOrderRepo) put(o models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = copyOrder(o)
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.creates++
	if _, ok := r.orders[o.ID]; ok {
		return apperr.Conflict("order already exists")
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	r.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order")
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []models.Order
	for _, o := range r.orders {
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.OrderStatus != "" && o.OrderStatus != filter.OrderStatus {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) Update(_ context.Context, id string, mutate func(*models.Order) error) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order")
	}
	o = copyOrder(o)
	if err := mutate(&o); err != nil {
		return nil, err
	}
	r.updates++
	r.orders[id] = copyOrder(o)
	return &o, nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperr.NotFound("order")
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) Stats(context.Context) (*models.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.OrderStats{
		TotalOrders:     int64(len(r.orders)),
		ByPaymentStatus: map[string]int64{},
		ByOrderStatus:   map[string]int64{},
	}
	for _, o := range r.orders {
		stats.ByPaymentStatus[string(o.PaymentStatus)]++
		stats.ByOrderStatus[string(o.OrderStatus)]++
	}
	return stats, nil
}

type fakeAdminRepo struct {
	hash string
	err  error
}

func (r *fakeAdminRepo) PasswordHash(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.hash == "" {
		return "", apperr.NotFound("admin password")
	}
	return r.hash, nil
}

func (r *fakeAdminRepo) SetPasswordHash(_ context.Context, hash string) error {
	if r.err != nil {
		return r.err
	}
	r.hash = hash
	return nil
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	args := m.Called(ctx, data, filename, contentType, folder)
	return args.String(0), args.Error(1)
}

// chanNotifier forwards events to a buffered channel.
type chanNotifier chan OrderEvent

func (c chanNotifier) Notify(_ context.Context, event OrderEvent) error {
	c <- event
	return nil
}
