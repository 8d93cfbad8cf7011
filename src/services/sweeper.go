package services

import (
	"log"
	"time"

	"tixmart/src/models"
	"tixmart/src/types"

	"gorm.io/gorm"
)

// Sweeper releases reservations past their deadline. It is safe to invoke
// on a timer and on demand at the same time: Expire is idempotent, so two
// concurrent sweeps over the same rows release each hold exactly once.
type Sweeper struct {
	db        *gorm.DB
	manager   *Manager
	batchSize int
}

func NewSweeper(db *gorm.DB, manager *Manager, batchSize int) *Sweeper {
	return &Sweeper{db: db, manager: manager, batchSize: batchSize}
}

type SweepSummary struct {
	Expired   int       `json:"expired"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Sweep expires every pending reservation whose deadline has passed. A
// failure on one reservation never blocks the rest of the batch; failed
// rows stay pending and are retried on the next invocation.
func (s *Sweeper) Sweep() SweepSummary {
	summary := SweepSummary{Timestamp: time.Now()}
	var due []models.Reservation
	if err := s.db.
		Model(&models.Reservation{}).
		Select("id", "order_id").
		Where("status = ? AND expires_at <= ?", types.RESERVATION_PENDING, time.Now()).
		Limit(s.batchSize).
		Find(&due).
		Error; err != nil {
		log.Printf("[sweeper] Error selecting due reservations: %s\n", err.Error())
		return summary
	}
	orderIDs := make(map[uint]bool)
	for _, r := range due {
		if err := s.manager.Expire(r.ID); err != nil {
			log.Printf("[sweeper] Error expiring reservation %d: %s\n", r.ID, err.Error())
			summary.Failed++
			continue
		}
		summary.Expired++
		orderIDs[r.OrderID] = true
	}
	for orderID := range orderIDs {
		s.failAbandonedOrder(orderID)
	}
	if summary.Expired > 0 || summary.Failed > 0 {
		log.Printf("[sweeper] Run complete: expired=%d failed=%d\n", summary.Expired, summary.Failed)
	}
	return summary
}

// failAbandonedOrder moves a pending order to failed once none of its
// reservations can still complete. Orders with live or confirmed
// reservations are left alone.
func (s *Sweeper) failAbandonedOrder(orderID uint) {
	var count int64
	if err := s.db.
		Model(&models.Reservation{}).
		Where("order_id = ? AND status IN (?)", orderID, []types.ReservationStatus{
			types.RESERVATION_PENDING,
			types.RESERVATION_CONFIRMED,
		}).
		Count(&count).
		Error; err != nil {
		log.Printf("[sweeper] Error counting reservations for order %d: %s\n", orderID, err.Error())
		return
	}
	if count > 0 {
		return
	}
	res := s.db.
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, types.ORDER_PENDING).
		Update("status", types.ORDER_FAILED)
	if res.Error != nil {
		log.Printf("[sweeper] Error failing order %d: %s\n", orderID, res.Error.Error())
	}
}
