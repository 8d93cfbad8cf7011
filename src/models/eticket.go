package models

import "tixmart/src/types"

// ETicket is issued per sold unit once an order is paid.
type ETicket struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	OrderID       uint                `json:"order_id,omitempty"`
	ReservationID uint                `json:"reservation_id,omitempty"`
	TicketTypeID  uint                `json:"ticket_type_id,omitempty"`
	Code          string              `gorm:"uniqueIndex" json:"code,omitempty"`
	Status        types.ETicketStatus `gorm:"default:'active'" json:"status,omitempty"`
	Delivered     bool                `json:"delivered,omitempty"`

	Order       *Order       `json:"order,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
	TicketType  *TicketType  `json:"ticket_type,omitempty"`

	types.Timestamps
}
