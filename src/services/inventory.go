package services

import (
	"fmt"
	"log"

	"tixmart/src/models"

	"gorm.io/gorm"
)

// Ledger owns the capacity/sold/held counters of ticket types. All three
// operations are single conditional UPDATEs on one row, so concurrent
// callers serialize on the row and sold + held <= capacity holds at all
// times, including across multiple server instances.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx rebinds the ledger to a running transaction so a counter move
// commits or rolls back together with the caller's state transition.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) Reserve(ticketTypeID uint, qty uint) error {
	if qty == 0 {
		return fmt.Errorf("reserve: qty must be positive for ticket type %d", ticketTypeID)
	}
	res := l.db.
		Model(&models.TicketType{}).
		Where("id = ? AND capacity - sold - held >= ?", ticketTypeID, qty).
		Update("held", gorm.Expr("held + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[ledger] Reserve rejected: ticket_type=%d qty=%d\n", ticketTypeID, qty)
		return ErrInsufficientInventory
	}
	return nil
}

func (l *Ledger) Release(ticketTypeID uint, qty uint) error {
	res := l.db.
		Model(&models.TicketType{}).
		Where("id = ? AND held >= ?", ticketTypeID, qty).
		Update("held", gorm.Expr("held - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Callers only release after winning the pending-state CAS, so an
		// underflow here means the counters drifted.
		return fmt.Errorf("release: held underflow for ticket type %d", ticketTypeID)
	}
	return nil
}

func (l *Ledger) Commit(ticketTypeID uint, qty uint) error {
	res := l.db.
		Model(&models.TicketType{}).
		Where("id = ? AND held >= ?", ticketTypeID, qty).
		Updates(map[string]any{
			"held": gorm.Expr("held - ?", qty),
			"sold": gorm.Expr("sold + ?", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("commit: held underflow for ticket type %d", ticketTypeID)
	}
	return nil
}
