package services

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc          *orderService
	orders       *fakeOrderRepo
	products     *fakeProductRepo
	movements    *fakeMovementRepo
	transactions *fakeTransactionRepo
	mock         sqlmock.Sqlmock
	now          time.Time
}

func newOrderFixture(t *testing.T, status models.OrderStatus) *orderFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &orderFixture{
		orders:       newFakeOrderRepo(),
		products:     newFakeProductRepo(models.Product{ID: 1, StoreID: 1, Name: "Whey", Price: d("10"), Stock: 3, IsActive: true}),
		movements:    &fakeMovementRepo{},
		transactions: &fakeTransactionRepo{},
		mock:         mock,
		now:          time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	f.orders.orders[7] = &models.Order{ID: 7, StoreID: 1, CustomerName: "Ana", Status: status, TotalAmount: d("25")}
	productID := int64(1)
	f.orders.items[7] = []models.OrderItem{{ID: 1, OrderID: 7, ProductID: &productID, ProductName: "Whey", Quantity: 2, UnitPrice: d("10"), TotalPrice: d("20")}}

	f.svc = NewOrderService(f.orders, f.products, f.movements, f.transactions, db, nil, "BR").(*orderService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestAdvanceOrderStatusWalksTheFlow(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)

	for _, want := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusDelivering} {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		order, err := f.svc.AdvanceOrderStatus(1, 7)
		require.NoError(t, err)
		assert.Equal(t, want, order.Status)
		assert.Equal(t, want, f.orders.orders[7].Status)
	}
	assert.Empty(t, f.transactions.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceOrderStatusCompletionBooksIncome(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusDelivering)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.AdvanceOrderStatus(1, 7)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	require.Len(t, f.transactions.created, 1)
	income := f.transactions.created[0]
	assert.Equal(t, models.TransactionIncome, income.Type)
	assert.Equal(t, models.TransactionPaid, income.Status)
	assert.Equal(t, "Vendas", income.Category)
	assert.Equal(t, "Pedido #7 - Ana", income.Description)
	assert.Equal(t, "25.00", income.Amount.StringFixed(2))
	require.NotNil(t, income.OrderID)
	assert.Equal(t, int64(7), *income.OrderID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceOrderStatusTerminalIsNoop(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)

	order, err := f.svc.AdvanceOrderStatus(1, 7)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Empty(t, f.transactions.created)
	assert.NoError(t, f.mock.ExpectationsWereMet(), "no transaction is opened for a completed order")
}

func TestAdvanceOrderStatusReconcilesOnConcurrentChange(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	f.orders.statusErr = repositories.ErrNotFound
	f.orders.afterStatusWrite = func(o *models.Order) { o.Status = models.OrderStatusDelivering }
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	order, err := f.svc.AdvanceOrderStatus(1, 7)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrOrderStatusChanged)

	var advErr *AdvanceError
	require.True(t, errors.As(err, &advErr))
	require.NotNil(t, advErr.Current)
	assert.Equal(t, models.OrderStatusDelivering, advErr.Current.Status, "caller gets the stored state, not its local guess")
	assert.Len(t, advErr.Current.Items, 1)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceOrderStatusWriteFailure(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	f.orders.statusErr = errors.New("connection reset")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.AdvanceOrderStatus(1, 7)
	assert.ErrorIs(t, err, ErrOrderUpdateFailed)
	var advErr *AdvanceError
	require.True(t, errors.As(err, &advErr))
	assert.Equal(t, models.OrderStatusPending, advErr.Current.Status, "the locally advanced order is discarded")
	assert.Equal(t, models.OrderStatusPending, f.orders.orders[7].Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceOrderStatusBeginFailure(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	f.mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	_, err := f.svc.AdvanceOrderStatus(1, 7)
	assert.ErrorIs(t, err, ErrOrderUpdateFailed)
	assert.Equal(t, models.OrderStatusPending, f.orders.orders[7].Status)
}

func TestAdvanceOrderStatusNotFound(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	_, err := f.svc.AdvanceOrderStatus(2, 7)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusProcessing)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.DeleteOrder(1, 42, 7))
	assert.Equal(t, 5, f.products.products[1].Stock)
	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, models.MovementTypeReturnDeletion, m.MovementType)
	assert.Equal(t, 2, m.QuantityChanged)
	require.NotNil(t, m.UserID)
	assert.Equal(t, int64(42), *m.UserID)
	assert.Equal(t, []int64{7}, f.orders.deleted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteCompletedOrderKeepsStock(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.DeleteOrder(1, 42, 7))
	assert.Equal(t, 3, f.products.products[1].Stock)
	assert.Empty(t, f.movements.movements)
}
