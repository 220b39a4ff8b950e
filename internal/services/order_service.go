package services

import (
	"context"
	"log/slog"

	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/shopspring/decimal"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	events    EventPublisher
	logger    *slog.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, events EventPublisher, logger *slog.Logger) *OrderService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		events:    events,
		logger:    logger,
	}
}

// CreateOrderInput is what a buyer submits. Product existence, quantity and
// total are accepted as given.
type CreateOrderInput struct {
	BuyerID   string
	ProductID string
	Size      string
	Color     string
	Material  string
	Quantity  int
	Total     float64
	Address   string
	Phone     string
}

// CreateOrder persists a new order in the pending state.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:    in.BuyerID,
		ProductID: in.ProductID,
		Size:      in.Size,
		Color:     in.Color,
		Material:  in.Material,
		Quantity:  in.Quantity,
		Total:     in.Total,
		State:     models.OrderStatePending,
		Address:   in.Address,
		Phone:     in.Phone,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "buyer_id", order.UserID)
	publish(ctx, s.events, s.logger, EventOrderCreated, order)
	return order, nil
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// UpdateOrderState overwrites the order state with any string, including
// ones outside the known states. There is no transition table.
func (s *OrderService) UpdateOrderState(ctx context.Context, id, state string) (*models.Order, error) {
	order, err := s.orderRepo.UpdateState(ctx, id, state)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.logger, EventOrderStateUpdated, map[string]string{"orderId": id, "state": state})
	return order, nil
}

// DeleteOrder removes the order, then retracts its id from the buyer's order
// list and, when given, from the seller's. Retraction is best-effort: a
// missing user or store failure there is logged and the delete still succeeds.
func (s *OrderService) DeleteOrder(ctx context.Context, id, sellerID string) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}

	for _, userID := range retractFrom(order.UserID, sellerID) {
		if err := s.userRepo.PullOrder(ctx, userID, id); err != nil {
			s.logger.WarnContext(ctx, "failed to retract order from user", "order_id", id, "user_id", userID, "error", err)
		}
	}
	publish(ctx, s.events, s.logger, EventOrderDeleted, map[string]string{"orderId": id})
	return nil
}

func retractFrom(buyerID, sellerID string) []string {
	ids := make([]string, 0, 2)
	if buyerID != "" {
		ids = append(ids, buyerID)
	}
	if sellerID != "" && sellerID != buyerID {
		ids = append(ids, sellerID)
	}
	return ids
}

// AttachOrderToSeller appends orderID to the seller's order list.
func (s *OrderService) AttachOrderToSeller(ctx context.Context, sellerID, orderID string) error {
	if orderID == "" {
		return &models.ValidationError{Field: "orderId", Reason: "is required"}
	}
	return s.userRepo.PushOrder(ctx, sellerID, orderID)
}

// SellerOrderStats is the per-seller breakdown of referenced orders.
type SellerOrderStats struct {
	Orders       []models.Order `json:"orders"`
	TotalOrders  int            `json:"totalOrders"`
	Completed    []models.Order `json:"completed"`
	NumCompleted int            `json:"numCompleted"`
	Pending      []models.Order `json:"pending"`
	NumPending   int            `json:"numPending"`
	Shipped      []models.Order `json:"shipped"`
	NumShipped   int            `json:"numShipped"`
	Cancelled    []models.Order `json:"cancelled"`
	NumCancelled int            `json:"numCancelled"`
	TotalIncome  float64        `json:"totalIncome"`
}

// sellerOrders loads the seller's order references and the distinct orders
// they resolve to, newest first. Ids that no longer resolve are skipped.
func (s *OrderService) sellerOrders(ctx context.Context, sellerID, state string) (models.IDList, []models.Order, error) {
	seller, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(seller.Orders))
	seen := make(map[string]struct{}, len(seller.Orders))
	for _, id := range seller.Orders {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	orders, err := s.orderRepo.Find(ctx, repositories.OrderFilter{IDs: ids, State: state})
	if err != nil {
		return nil, nil, err
	}
	return seller.Orders, orders, nil
}

// SellerOrderStats partitions the seller's orders by state. Orders and
// TotalOrders follow the seller's references, so an id attached twice counts
// twice; the state buckets hold each order once. Orders in an unknown state
// count towards TotalOrders only. TotalIncome sums completed totals.
func (s *OrderService) SellerOrderStats(ctx context.Context, sellerID string) (*SellerOrderStats, error) {
	refs, distinct, err := s.sellerOrders(ctx, sellerID, "")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Order, len(distinct))
	for _, o := range distinct {
		byID[o.ID] = o
	}
	orders := make([]models.Order, 0, len(refs))
	for _, id := range refs {
		if o, ok := byID[id]; ok {
			orders = append(orders, o)
		}
	}

	stats := &SellerOrderStats{
		Orders:      orders,
		TotalOrders: len(orders),
		Completed:   []models.Order{},
		Pending:     []models.Order{},
		Shipped:     []models.Order{},
		Cancelled:   []models.Order{},
	}
	income := decimal.Zero
	for _, o := range distinct {
		switch o.State {
		case models.OrderStateCompleted:
			stats.Completed = append(stats.Completed, o)
			income = income.Add(decimal.NewFromFloat(o.Total))
		case models.OrderStatePending:
			stats.Pending = append(stats.Pending, o)
		case models.OrderStateShipped:
			stats.Shipped = append(stats.Shipped, o)
		case models.OrderStateCancelled:
			stats.Cancelled = append(stats.Cancelled, o)
		}
	}
	stats.NumCompleted = len(stats.Completed)
	stats.NumPending = len(stats.Pending)
	stats.NumShipped = len(stats.Shipped)
	stats.NumCancelled = len(stats.Cancelled)
	stats.TotalIncome = income.InexactFloat64()
	return stats, nil
}

// SellerOrdersByState returns the seller's orders in exactly the given state.
func (s *OrderService) SellerOrdersByState(ctx context.Context, sellerID, state string) ([]models.Order, error) {
	_, orders, err := s.sellerOrders(ctx, sellerID, state)
	return orders, err
}
