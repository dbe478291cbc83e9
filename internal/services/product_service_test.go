package services

import (
	"testing"

	"supplestore_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	svc       *productService
	products  *fakeProductRepo
	movements *fakeMovementRepo
	mock      sqlmock.Sqlmock
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	products := newFakeProductRepo(
		models.Product{ID: 1, StoreID: 1, Name: "Whey", Price: d("120"), CostPrice: d("40"), Stock: 5, IsActive: true},
		models.Product{ID: 2, StoreID: 1, Name: "Creatina", Price: d("80"), CostPrice: d("25.5"), Stock: 3, IsActive: true},
		models.Product{ID: 3, StoreID: 1, Name: "Combo Treino", Price: d("180"), CostPrice: d("65.5"), IsKit: true, IsActive: true},
	)
	products.kitItems[3] = []models.KitItem{{ProductID: 1, Quantity: 1, ProductName: "Whey", CostPrice: d("40")}}
	movements := &fakeMovementRepo{}

	return &productFixture{
		svc:       NewProductService(products, movements, db, nil).(*productService),
		products:  products,
		movements: movements,
		mock:      mock,
	}
}

func TestAdjustStock(t *testing.T) {
	t.Run("positive change records an adjustment_in", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		p, err := f.svc.AdjustStock(1, 9, 1, AdjustStockRequest{Quantity: 4, Reason: "Reposição"})
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock)

		require.Len(t, f.movements.movements, 1)
		m := f.movements.movements[0]
		assert.Equal(t, models.MovementTypeAdjustmentIn, m.MovementType)
		assert.Equal(t, 4, m.QuantityChanged)
		assert.Equal(t, int64(1), m.ProductID)
		require.NotNil(t, m.UserID)
		assert.Equal(t, int64(9), *m.UserID)
		require.NotNil(t, m.Reason)
		assert.Equal(t, "Reposição", *m.Reason)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("negative change records an adjustment_out", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		p, err := f.svc.AdjustStock(1, 9, 2, AdjustStockRequest{Quantity: -3})
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)

		require.Len(t, f.movements.movements, 1)
		assert.Equal(t, models.MovementTypeAdjustmentOut, f.movements.movements[0].MovementType)
		assert.Equal(t, -3, f.movements.movements[0].QuantityChanged)
		assert.Nil(t, f.movements.movements[0].Reason)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("never goes below zero", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.AdjustStock(1, 9, 2, AdjustStockRequest{Quantity: -4})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 3, f.products.products[2].Stock)
		assert.Empty(t, f.movements.movements)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.AdjustStock(1, 9, 42, AdjustStockRequest{Quantity: 1})
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("zero is rejected before touching the database", func(t *testing.T) {
		f := newProductFixture(t)
		_, err := f.svc.AdjustStock(1, 9, 1, AdjustStockRequest{})
		assert.ErrorIs(t, err, ErrValidation)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestCreateKitProduct(t *testing.T) {
	t.Run("cost is the sum of component costs", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		p, err := f.svc.CreateProduct(1, CreateProductRequest{
			Name:  "Kit Hipertrofia",
			Price: d("250"),
			IsKit: true,
			KitItems: []KitItemRequest{
				{ProductID: 1, Quantity: 2},
				{ProductID: 2, Quantity: 1},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "105.50", p.CostPrice.StringFixed(2))
		require.Len(t, p.KitItems, 2)
		assert.Equal(t, "Creatina", p.KitItems[1].ProductName)
		assert.Len(t, f.products.kitItems[p.ID], 2)
		assert.Empty(t, f.movements.movements)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("explicit cost wins", func(t *testing.T) {
		f := newProductFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		cost := d("99.999")
		p, err := f.svc.CreateProduct(1, CreateProductRequest{
			Name: "Kit Promo", Price: d("150"), CostPrice: &cost, IsKit: true,
			KitItems: []KitItemRequest{{ProductID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "100.00", p.CostPrice.StringFixed(2))
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("invalid composition stops before the transaction", func(t *testing.T) {
		f := newProductFixture(t)
		_, err := f.svc.CreateProduct(1, CreateProductRequest{
			Name: "Kit Duplo", Price: d("100"), IsKit: true,
			KitItems: []KitItemRequest{{ProductID: 3, Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrInvalidKit)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestCreateProductRecordsInitialStock(t *testing.T) {
	f := newProductFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	p, err := f.svc.CreateProduct(1, CreateProductRequest{Name: "  BCAA ", Price: d("59.9"), Stock: 7})
	require.NoError(t, err)
	assert.Equal(t, "BCAA", p.Name)
	assert.True(t, p.IsActive)

	require.Len(t, f.movements.movements, 1)
	assert.Equal(t, models.MovementTypeAdjustmentIn, f.movements.movements[0].MovementType)
	assert.Equal(t, 7, f.movements.movements[0].QuantityChanged)
	assert.Equal(t, p.ID, f.movements.movements[0].ProductID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateKitRecomputesCost(t *testing.T) {
	f := newProductFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	p, err := f.svc.UpdateProduct(1, 3, UpdateProductRequest{
		KitItems: []KitItemRequest{{ProductID: 2, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, p.CostPrice.Equal(decimal.RequireFromString("76.5")))
	assert.Equal(t, []models.KitItem{{ProductID: 2, Quantity: 3, ProductName: "Creatina", CostPrice: d("25.5")}}, f.products.kitItems[3])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestResolveKitRejects(t *testing.T) {
	f := newProductFixture(t)

	tests := []struct {
		name  string
		kitID int64
		items []KitItemRequest
	}{
		{"no components", 3, nil},
		{"itself", 3, []KitItemRequest{{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 1}}},
		{"duplicate component", 0, []KitItemRequest{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2}}},
		{"nested kit", 0, []KitItemRequest{{ProductID: 2, Quantity: 1}, {ProductID: 3, Quantity: 1}}},
		{"unknown component", 0, []KitItemRequest{{ProductID: 77, Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := f.svc.resolveKit(1, tt.kitID, tt.items)
			assert.ErrorIs(t, err, ErrInvalidKit)
			assert.Nil(t, items)
		})
	}
}
