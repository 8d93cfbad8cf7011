package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tixmart/src/models"
	"tixmart/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Manager owns the reservation state machine: PENDING is the only live
// state and exactly one of confirm/expire/cancel wins for every pending
// reservation. Every transition is a compare-and-swap on the status column,
// never an unconditional write.
type Manager struct {
	db     *gorm.DB
	ledger *Ledger
	ttl    time.Duration
}

func NewManager(db *gorm.DB, ledger *Ledger, ttl time.Duration) *Manager {
	return &Manager{db: db, ledger: ledger, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create acquires a hold per requested ticket type and persists the order
// with its pending reservations. If any reserve call fails, holds acquired
// so far are released and the whole call fails naming the offending tier.
func (m *Manager) Create(userID uint, provider string, items []types.ReservationItem) (*models.Order, []models.Reservation, error) {
	ticketTypes := make([]models.TicketType, 0, len(items))
	var amount int64
	currency := "usd"
	for _, item := range items {
		var tt models.TicketType
		if err := m.db.
			Model(&models.TicketType{}).
			Where("id = ?", item.TicketTypeID).
			First(&tt).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("%w: unknown ticket type %d", ErrInsufficientInventory, item.TicketTypeID)
			}
			return nil, nil, err
		}
		ticketTypes = append(ticketTypes, tt)
		amount += tt.Price * int64(item.Qty)
		if tt.Currency != "" {
			currency = tt.Currency
		}
	}

	acquired := make([]types.ReservationItem, 0, len(items))
	for i, item := range items {
		if err := m.ledger.Reserve(item.TicketTypeID, item.Qty); err != nil {
			m.compensate(acquired)
			if errors.Is(err, ErrInsufficientInventory) {
				return nil, nil, fmt.Errorf("%w: ticket type [%s] has no more slots available", ErrInsufficientInventory, ticketTypes[i].Tier)
			}
			return nil, nil, err
		}
		acquired = append(acquired, item)
	}

	now := time.Now()
	expiresAt := now.Add(m.ttl)
	order := models.Order{
		UserID:    userID,
		Status:    types.ORDER_PENDING,
		Amount:    amount,
		Currency:  currency,
		Provider:  provider,
		RequestID: uuid.NewString(),
	}
	reservations := make([]models.Reservation, 0, len(items))
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range items {
			reservation := models.Reservation{
				TicketTypeID: item.TicketTypeID,
				OrderID:      order.ID,
				UserID:       userID,
				Qty:          item.Qty,
				Status:       types.RESERVATION_PENDING,
				ExpiresAt:    expiresAt,
			}
			if err := tx.Create(&reservation).Error; err != nil {
				return err
			}
			reservations = append(reservations, reservation)
		}
		return nil
	})
	if err != nil {
		log.Printf("[reservations] Create failed, releasing holds: %s\n", err.Error())
		m.compensate(acquired)
		return nil, nil, err
	}
	return &order, reservations, nil
}

func (m *Manager) compensate(acquired []types.ReservationItem) {
	for _, item := range acquired {
		if err := m.ledger.Release(item.TicketTypeID, item.Qty); err != nil {
			log.Printf("[reservations] Error releasing hold for ticket type %d: %s\n", item.TicketTypeID, err.Error())
		}
	}
}

// Confirm commits held inventory for a pending, unexpired reservation.
func (m *Manager) Confirm(id uint) error {
	reservation, err := m.get(id)
	if err != nil {
		return err
	}
	if reservation.Status != types.RESERVATION_PENDING {
		return ErrInvalidState
	}
	if time.Now().After(reservation.ExpiresAt) {
		return ErrReservationExpired
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, types.RESERVATION_PENDING).
			Update("status", types.RESERVATION_CONFIRMED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against the sweeper or a cancel.
			return ErrInvalidState
		}
		return m.ledger.WithTx(tx).Commit(reservation.TicketTypeID, reservation.Qty)
	})
}

// Cancel releases held inventory for a pending reservation.
func (m *Manager) Cancel(id uint) error {
	reservation, err := m.get(id)
	if err != nil {
		return err
	}
	if reservation.Status != types.RESERVATION_PENDING {
		return ErrInvalidState
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, types.RESERVATION_PENDING).
			Update("status", types.RESERVATION_CANCELED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		return m.ledger.WithTx(tx).Release(reservation.TicketTypeID, reservation.Qty)
	})
}

// Expire is the system-initiated equivalent of Cancel. It is a no-op on an
// already-terminal reservation because the sweeper and the reconciler may
// race on the same row.
func (m *Manager) Expire(id uint) error {
	reservation, err := m.get(id)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil
		}
		return err
	}
	if reservation.Status != types.RESERVATION_PENDING {
		return nil
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, types.RESERVATION_PENDING).
			Update("status", types.RESERVATION_EXPIRED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return m.ledger.WithTx(tx).Release(reservation.TicketTypeID, reservation.Qty)
	})
}

// CancelOrder is the buyer-initiated cancel: every pending reservation in
// the order is canceled and the order moves to canceled.
func (m *Manager) CancelOrder(orderID uint) error {
	var reservations []models.Reservation
	if err := m.db.
		Model(&models.Reservation{}).
		Where("order_id = ? AND status = ?", orderID, types.RESERVATION_PENDING).
		Find(&reservations).
		Error; err != nil {
		return err
	}
	for _, r := range reservations {
		if err := m.Cancel(r.ID); err != nil && !errors.Is(err, ErrInvalidState) {
			return err
		}
	}
	res := m.db.
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, types.ORDER_PENDING).
		Update("status", types.ORDER_CANCELED)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	return nil
}

func (m *Manager) get(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := m.db.
		Model(&models.Reservation{}).
		Where("id = ?", id).
		First(&reservation).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return &reservation, nil
}
