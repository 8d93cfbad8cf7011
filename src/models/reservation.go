package models

import (
	"time"

	"tixmart/src/types"
)

type Reservation struct {
	ID           uint                    `gorm:"primarykey" json:"id"`
	TicketTypeID uint                    `json:"ticket_type_id,omitempty"`
	OrderID      uint                    `json:"order_id,omitempty"`
	UserID       uint                    `json:"user_id,omitempty"`
	Qty          uint                    `json:"qty,omitempty"`
	Status       types.ReservationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	ExpiresAt    time.Time               `json:"expires_at,omitempty"`

	TicketType TicketType `json:"ticket_type,omitempty"`
	Order      *Order     `json:"order,omitempty"`

	types.Timestamps
}
