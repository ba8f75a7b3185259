package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/models"
)

// OrderStore is the sole writer of persisted orders. Inserts go through the
// partial unique index on the derived key; a duplicate commit attempt comes
// back as a conflict, which the reconciliation coordinator absorbs.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Insert persists a new order. Returns a conflict error when a non-cancelled
// order with the same derived key already exists.
func (s *OrderStore) Insert(ctx context.Context, order *models.Order) (uint, error) {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.Conflict("an order for this payment already exists")
		}
		return 0, apperrors.Persistence("order insert failed", err)
	}
	return order.ID, nil
}

// FindByDerivedKey returns the oldest non-cancelled order for the key, or nil
// when none exists.
func (s *OrderStore) FindByDerivedKey(ctx context.Context, listingID, buyerID, orderHandle string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("derived_key = ? AND status <> ?", models.DeriveKey(listingID, buyerID, orderHandle), models.OrderStatusCancelled).
		Order("created_at asc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Persistence("order lookup failed", err)
	}
	return &order, nil
}

// GetByID fetches an order, nil when it does not exist.
func (s *OrderStore) GetByID(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Persistence("order lookup failed", err)
	}
	return &order, nil
}

// QueryByBuyer lists a buyer's orders, newest first.
func (s *OrderStore) QueryByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Persistence("buyer order query failed", err)
	}
	return orders, nil
}

// QueryBySeller lists a seller's orders, newest first.
func (s *OrderStore) QueryBySeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Persistence("seller order query failed", err)
	}
	return orders, nil
}

// DuplicateGroup is a derived key that owns more than one live order row.
type DuplicateGroup struct {
	DerivedKey string `json:"derived_key"`
	Count      int64  `json:"count"`
}

// ListDuplicateDerivedKeys reports derived keys with more than one
// non-cancelled order. The unique index prevents new duplicates; this feeds
// the reconciliation sweep for rows predating it.
func (s *OrderStore) ListDuplicateDerivedKeys(ctx context.Context) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("derived_key, count(*) as count").
		Where("status <> ?", models.OrderStatusCancelled).
		Group("derived_key").
		Having("count(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return nil, apperrors.Persistence("duplicate key scan failed", err)
	}
	return groups, nil
}

// OrdersForDerivedKey returns all non-cancelled orders for a derived key,
// oldest first, for the sweep to decide which row survives.
func (s *OrderStore) OrdersForDerivedKey(ctx context.Context, derivedKey string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("derived_key = ? AND status <> ?", derivedKey, models.OrderStatusCancelled).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Persistence("derived key query failed", err)
	}
	return orders, nil
}

// MarkCompleted transitions a pending order to completed. Only the
// coordinator and explicit admin operations may call status transitions.
func (s *OrderStore) MarkCompleted(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, models.OrderStatusCompleted, []models.OrderStatus{models.OrderStatusPending})
}

// MarkCancelled cancels a pending or completed order (e.g. on dispute).
func (s *OrderStore) MarkCancelled(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, models.OrderStatusCancelled, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCompleted})
}

func (s *OrderStore) transition(ctx context.Context, orderID uint, to models.OrderStatus, from []models.OrderStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return apperrors.Persistence("order status update failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("order is not in a state that allows this transition")
	}
	return nil
}
