package services

import (
	"log"

	"tixmart/src/models"
	"tixmart/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Materializer turns a paid order into issued e-tickets, one per sold
// unit. The reconciler invokes it at most once per transition into paid;
// the existence check on top of that makes a re-run after a crash between
// "order marked paid" and "tickets written" safe.
type Materializer struct {
	db *gorm.DB
}

func NewMaterializer(db *gorm.DB) *Materializer {
	return &Materializer{db: db}
}

func (m *Materializer) Materialize(orderID uint) error {
	var count int64
	if err := m.db.
		Model(&models.ETicket{}).
		Where("order_id = ?", orderID).
		Count(&count).
		Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[materializer] Order %d already has %d e-tickets, skipping\n", orderID, count)
		return nil
	}

	var reservations []models.Reservation
	if err := m.db.
		Model(&models.Reservation{}).
		Where("order_id = ? AND status = ?", orderID, types.RESERVATION_CONFIRMED).
		Find(&reservations).
		Error; err != nil {
		return err
	}

	issued := 0
	err := m.db.Transaction(func(tx *gorm.DB) error {
		for _, reservation := range reservations {
			for i := uint(0); i < reservation.Qty; i++ {
				eticket := models.ETicket{
					OrderID:       orderID,
					ReservationID: reservation.ID,
					TicketTypeID:  reservation.TicketTypeID,
					Code:          uuid.NewString(),
					Status:        types.ETICKET_ACTIVE,
				}
				if err := tx.Create(&eticket).Error; err != nil {
					return err
				}
				issued++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[materializer] Issued %d e-tickets for order %d\n", issued, orderID)
	return nil
}
