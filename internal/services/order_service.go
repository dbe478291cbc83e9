package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderTerminal      = errors.New("order is already completed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrOrderStatusChanged = errors.New("order status changed concurrently")
)

// UpdateOrderRequest edits the descriptive fields of an order.
type UpdateOrderRequest struct {
	CustomerName  *string `json:"customer_name" binding:"omitempty,min=1"`
	CustomerPhone *string `json:"customer_phone"`
	Address       *string `json:"address"`
	PaymentMethod *string `json:"payment_method" binding:"omitempty,max=40"`
	Notes         *string `json:"notes" binding:"omitempty,max=500"`
}

// AdvanceError carries the authoritative order re-read after a failed status write.
type AdvanceError struct {
	Err     error
	Current *models.Order
}

func (e *AdvanceError) Error() string { return e.Err.Error() }
func (e *AdvanceError) Unwrap() error { return e.Err }

// --- OrderService Interface ---
type OrderService interface {
	GetOrders(storeID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(storeID, orderID int64) (*models.Order, error) // with items
	// AdvanceOrderStatus moves the order one step forward. On a failed write it
	// returns an *AdvanceError holding the freshly read order.
	AdvanceOrderStatus(storeID, orderID int64) (*models.Order, error)
	UpdateOrder(storeID, orderID int64, req UpdateOrderRequest) (*models.Order, error)
	DeleteOrder(storeID, userID, orderID int64) error
	UploadInvoice(ctx context.Context, storeID, orderID int64, filename string, r io.Reader) (*models.Order, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo       repositories.OrderRepository
	productRepo     repositories.ProductRepository
	movementRepo    repositories.StockMovementRepository
	transactionRepo repositories.TransactionRepository
	db              TxBeginner
	media           MediaStorage
	defaultRegion   string
	now             func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	tr repositories.TransactionRepository,
	db TxBeginner,
	media MediaStorage,
	defaultRegion string,
) OrderService {
	return &orderService{
		orderRepo:       or,
		productRepo:     pr,
		movementRepo:    mr,
		transactionRepo: tr,
		db:              db,
		media:           media,
		defaultRegion:   defaultRegion,
		now:             time.Now,
	}
}

func (s *orderService) GetOrders(storeID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, *filters.Status)
	}
	orders, totalCount, err := s.orderRepo.GetOrders(storeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(storeID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(storeID, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items = items
	return order, nil
}

// AdvanceOrderStatus advances the freshly read order in memory and writes it with a
// compare-and-set on the previous status. On any write failure the in-memory order is
// discarded and the stored one is re-read and returned inside an *AdvanceError.
// Completing an order books a paid income entry.
func (s *orderService) AdvanceOrderStatus(storeID, orderID int64) (*models.Order, error) {
	order, err := s.GetOrderByID(storeID, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !order.Advance() {
		return order, nil
	}

	if err := s.writeAdvance(order, from); err != nil {
		utils.LogWarn("Order status write failed, reconciling", map[string]interface{}{
			"store_id": storeID, "order_id": orderID, "from": from, "to": order.Status, "error": err.Error(),
		})
		current, refetchErr := s.GetOrderByID(storeID, orderID)
		if refetchErr != nil {
			return nil, fmt.Errorf("%w: %v (refetch failed: %v)", ErrOrderUpdateFailed, err, refetchErr)
		}
		return nil, &AdvanceError{Err: err, Current: current}
	}
	return order, nil
}

func (s *orderService) writeAdvance(order *models.Order, from models.OrderStatus) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdateOrderStatus(tx, order.StoreID, order.ID, from, order.Status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderStatusChanged
		}
		return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}

	if order.Status == models.OrderStatusCompleted && order.TotalAmount.IsPositive() {
		today := s.now()
		orderID := order.ID
		income := &models.Transaction{
			StoreID:      order.StoreID,
			OrderID:      &orderID,
			Description:  fmt.Sprintf("Pedido #%d - %s", order.ID, order.CustomerName),
			Category:     "Vendas",
			Type:         models.TransactionIncome,
			CategoryType: models.CategoryVariable,
			Amount:       order.TotalAmount,
			Status:       models.TransactionPaid,
			DueDate:      today,
			PaymentDate:  &today,
		}
		if _, err := s.transactionRepo.CreateTransaction(tx, income); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	order.UpdatedAt = s.now()
	return nil
}

func (s *orderService) UpdateOrder(storeID, orderID int64, req UpdateOrderRequest) (*models.Order, error) {
	order, err := s.GetOrderByID(storeID, orderID)
	if err != nil {
		return nil, err
	}
	if req.CustomerName != nil {
		order.CustomerName = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		if utils.IsEmpty(*req.CustomerPhone) {
			order.CustomerPhone = nil
		} else {
			phone, err := utils.NormalizePhone(*req.CustomerPhone, s.defaultRegion)
			if err != nil {
				return nil, fmt.Errorf("%w: customer_phone: %v", ErrValidation, err)
			}
			order.CustomerPhone = &phone
		}
	}
	if req.Address != nil {
		order.Address = utils.NewNullString(*req.Address)
	}
	if req.PaymentMethod != nil {
		order.PaymentMethod = utils.NewNullString(*req.PaymentMethod)
	}
	if req.Notes != nil {
		order.Notes = utils.NewNullString(*req.Notes)
	}
	if err := s.orderRepo.UpdateOrderDetails(s.db, order); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return order, nil
}

// DeleteOrder removes the order. Stock of orders that were not completed is put back.
func (s *orderService) DeleteOrder(storeID, userID, orderID int64) error {
	order, err := s.GetOrderByID(storeID, orderID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if order.Status != models.OrderStatusCompleted {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			_, repoErr := s.productRepo.UpdateStock(tx, storeID, *item.ProductID, item.Quantity)
			if errors.Is(repoErr, repositories.ErrNotFound) {
				continue
			}
			if repoErr != nil {
				return fmt.Errorf("failed to return stock for product ID %d on delete: %w", *item.ProductID, repoErr)
			}
			movement := &models.StockMovement{
				StoreID:         storeID,
				ProductID:       *item.ProductID,
				MovementType:    models.MovementTypeReturnDeletion,
				QuantityChanged: item.Quantity,
				Reason:          utils.NewNullString(fmt.Sprintf("Order %d deleted", orderID)),
			}
			if userID > 0 {
				movement.UserID = &userID
			}
			if _, repoErr = s.movementRepo.CreateMovement(tx, movement); repoErr != nil {
				return fmt.Errorf("failed to record stock return for product ID %d: %w", *item.ProductID, repoErr)
			}
		}
	}

	if err := s.orderRepo.DeleteOrder(tx, storeID, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return tx.Commit()
}

func (s *orderService) UploadInvoice(ctx context.Context, storeID, orderID int64, filename string, r io.Reader) (*models.Order, error) {
	order, err := s.GetOrderByID(storeID, orderID)
	if err != nil {
		return nil, err
	}
	publicID := fmt.Sprintf("order-%d-%d", orderID, s.now().Unix())
	url, err := s.media.UploadFile(ctx, fmt.Sprintf("stores/%d/invoices", storeID), publicID, r)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetInvoiceURL(s.db, storeID, orderID, url); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to save invoice url: %w", err)
	}
	utils.LogInfo("Invoice uploaded", map[string]interface{}{"store_id": storeID, "order_id": orderID, "file": filename})
	order.InvoiceURL = &url
	return order, nil
}
