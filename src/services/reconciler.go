package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tixmart/src/models"
	"tixmart/src/types"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notification is the canonical form every provider webhook and status
// poll is reduced to before it touches order state.
type Notification struct {
	Provider  string
	TxnID     string
	RequestID string
	Status    types.PaymentStatus
	Amount    int64
}

// Reconciler applies provider notifications to order and reservation state
// exactly once per distinct transaction id. Duplicate deliveries are
// detected first through a best-effort redis key and then, authoritatively,
// through the payment_events unique index.
type Reconciler struct {
	db           *gorm.DB
	manager      *Manager
	materializer *Materializer
	rd           *redis.Client
}

func NewReconciler(db *gorm.DB, manager *Manager, materializer *Materializer, rd *redis.Client) *Reconciler {
	return &Reconciler{db: db, manager: manager, materializer: materializer, rd: rd}
}

const dedupeKeyTTL = 24 * time.Hour

// Apply drives the order state machine from a canonical notification. A
// nil return means the notification was handled (including idempotent
// no-ops) and the gateway should be acknowledged; a non-nil return means
// infrastructure failed mid-way and the gateway should retry.
func (r *Reconciler) Apply(ctx context.Context, n Notification) error {
	if n.Status == types.PAYMENT_PENDING {
		// Intermediate progression, acknowledge only.
		log.Printf("[reconciler] %s txn %s still pending, no transition\n", n.Provider, n.TxnID)
		return nil
	}
	if n.RequestID == "" {
		// Without a correlation key the event can never be matched to an
		// order, and a redelivery would carry the same empty key.
		log.Printf("[reconciler] %s txn %s carries no correlation key, acknowledging without transition\n", n.Provider, n.TxnID)
		return nil
	}

	var order models.Order
	if err := r.db.
		Model(&models.Order{}).
		Where("request_id = ?", n.RequestID).
		First(&order).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[reconciler] No order for correlation key %s (%s txn %s)\n", n.RequestID, n.Provider, n.TxnID)
			return ErrOrderNotFound
		}
		return err
	}

	dedupeKey := fmt.Sprintf("webhook:%s:%s", n.Provider, n.TxnID)
	if r.rd != nil {
		ok, err := r.rd.SetNX(ctx, dedupeKey, order.ID, dedupeKeyTTL).Result()
		if err != nil {
			log.Printf("[reconciler] Redis dedupe check failed, falling through to db: %s\n", err.Error())
		} else if !ok {
			log.Printf("[reconciler] Duplicate %s txn %s (cache)\n", n.Provider, n.TxnID)
			return nil
		}
	}

	event := models.PaymentEvent{
		Provider: n.Provider,
		TxnID:    n.TxnID,
		OrderID:  order.ID,
		Status:   string(n.Status),
	}
	res := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "txn_id"}},
			DoNothing: true,
		}).
		Create(&event)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[reconciler] Duplicate %s txn %s (already applied)\n", n.Provider, n.TxnID)
		return nil
	}

	var err error
	switch n.Status {
	case types.PAYMENT_SUCCEEDED:
		err = r.applySuccess(&order, n)
	case types.PAYMENT_FAILED, types.PAYMENT_EXPIRED, types.PAYMENT_CANCELED:
		err = r.applyFailure(&order, n)
	default:
		log.Printf("[reconciler] Unhandled payment status %q for %s txn %s\n", n.Status, n.Provider, n.TxnID)
		return nil
	}
	if err != nil {
		// Roll back both dedupe markers so the gateway retry is not
		// swallowed as a duplicate. Unscoped keeps the unique index free
		// of a soft-deleted row.
		if delErr := r.db.Unscoped().Delete(&models.PaymentEvent{}, event.ID).Error; delErr != nil {
			log.Printf("[reconciler] Error rolling back payment event %d: %s\n", event.ID, delErr.Error())
		}
		if r.rd != nil {
			if delErr := r.rd.Del(ctx, dedupeKey).Err(); delErr != nil {
				log.Printf("[reconciler] Error releasing dedupe key %s: %s\n", dedupeKey, delErr.Error())
			}
		}
		return err
	}
	return nil
}

func (r *Reconciler) applySuccess(order *models.Order, n Notification) error {
	var reservations []models.Reservation
	if err := r.db.
		Model(&models.Reservation{}).
		Where("order_id = ?", order.ID).
		Find(&reservations).
		Error; err != nil {
		return err
	}

	expired := false
	for _, reservation := range reservations {
		if reservation.Status == types.RESERVATION_CONFIRMED {
			continue
		}
		err := r.manager.Confirm(reservation.ID)
		switch {
		case err == nil:
		case errors.Is(err, ErrReservationExpired), errors.Is(err, ErrInvalidState):
			// Paid, but the stock already went back to the pool. Money has
			// been taken, so this is never resolved silently.
			expired = true
		default:
			return err
		}
	}

	if expired {
		log.Printf("[reconciler] Order %d paid after expiry (%s txn %s), flagging for manual review\n", order.ID, n.Provider, n.TxnID)
		return r.db.
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"needs_review": true,
				"provider_ref": n.TxnID,
			}).Error
	}

	res := r.db.
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, types.ORDER_PENDING).
		Updates(map[string]any{
			"status":       types.ORDER_PAID,
			"provider_ref": n.TxnID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The order left pending while its inventory was being committed.
		// Money was captured against a state that no longer exists, so an
		// operator has to resolve it.
		log.Printf("[reconciler] Order %d left pending before payment applied (%s txn %s), flagging for manual review\n", order.ID, n.Provider, n.TxnID)
		return r.db.
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"needs_review": true,
				"provider_ref": n.TxnID,
			}).Error
	}
	log.Printf("[reconciler] Order %d paid via %s txn %s\n", order.ID, n.Provider, n.TxnID)
	return r.materializer.Materialize(order.ID)
}

func (r *Reconciler) applyFailure(order *models.Order, n Notification) error {
	var reservations []models.Reservation
	if err := r.db.
		Model(&models.Reservation{}).
		Where("order_id = ? AND status = ?", order.ID, types.RESERVATION_PENDING).
		Find(&reservations).
		Error; err != nil {
		return err
	}
	for _, reservation := range reservations {
		if err := r.manager.Cancel(reservation.ID); err != nil && !errors.Is(err, ErrInvalidState) {
			return err
		}
	}
	res := r.db.
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, types.ORDER_PENDING).
		Updates(map[string]any{
			"status":       types.ORDER_FAILED,
			"provider_ref": n.TxnID,
		})
	if res.Error != nil {
		return res.Error
	}
	log.Printf("[reconciler] Order %d failed via %s txn %s (%s)\n", order.ID, n.Provider, n.TxnID, n.Status)
	return nil
}
