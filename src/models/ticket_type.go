package models

import "tixmart/src/types"

// TicketType carries the authoritative inventory counters. Every mutation
// of Sold/Held goes through a single conditional UPDATE on this row so that
// sold + held never exceeds Capacity.
type TicketType struct {
	ID        uint                   `gorm:"primarykey" json:"id"`
	EventName string                 `json:"event_name,omitempty"`
	Tier      string                 `json:"tier,omitempty"`
	Price     int64                  `json:"price"`
	Currency  string                 `json:"currency,omitempty"`
	Capacity  uint                   `json:"capacity"`
	Sold      uint                   `json:"sold"`
	Held      uint                   `json:"held"`
	Status    types.TicketTypeStatus `gorm:"default:'open'" json:"status,omitempty"`

	types.Timestamps
}

func (t *TicketType) Available() uint {
	return t.Capacity - t.Sold - t.Held
}
