package services

import (
	"context"
	"fmt"
	"log"

	"github.com/sanket-rajput/agritraceDep/internal/models"
)

type sweepStore interface {
	ListDuplicateDerivedKeys(ctx context.Context) ([]DuplicateGroup, error)
	OrdersForDerivedKey(ctx context.Context, derivedKey string) ([]models.Order, error)
	MarkCancelled(ctx context.Context, orderID uint) error
}

// SweepDuplicateOrders merges duplicate order rows: for every derived key with
// more than one live order, the oldest row survives and the rest are
// cancelled. The unique index keeps new duplicates out; this covers rows that
// predate it. Returns the number of rows cancelled.
func SweepDuplicateOrders(ctx context.Context, store sweepStore) (int, error) {
	groups, err := store.ListDuplicateDerivedKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list duplicate derived keys: %w", err)
	}

	cancelled := 0
	for _, group := range groups {
		orders, err := store.OrdersForDerivedKey(ctx, group.DerivedKey)
		if err != nil {
			return cancelled, fmt.Errorf("load orders for %s: %w", group.DerivedKey, err)
		}
		// Oldest first; keep index 0.
		for _, order := range orders[1:] {
			if err := store.MarkCancelled(ctx, order.ID); err != nil {
				return cancelled, fmt.Errorf("cancel duplicate order %d: %w", order.ID, err)
			}
			sweepCancellations.Inc()
			cancelled++
			log.Printf("sweep: cancelled duplicate order %d for derived key %s", order.ID, group.DerivedKey)
		}
	}
	return cancelled, nil
}
