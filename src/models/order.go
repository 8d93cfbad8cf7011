package models

import "tixmart/src/types"

type Order struct {
	ID     uint              `gorm:"primarykey" json:"id"`
	UserID uint              `json:"user_id,omitempty"`
	Status types.OrderStatus `gorm:"default:'pending'" json:"status,omitempty"`

	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Provider string `json:"provider,omitempty"`

	// RequestID is the correlation key handed to the payment gateway at
	// checkout and echoed back in webhook metadata.
	RequestID   string  `gorm:"uniqueIndex" json:"request_id,omitempty"`
	SessionID   *string `json:"session_id,omitempty"`
	ProviderRef *string `json:"provider_ref,omitempty"`
	CheckoutURL *string `json:"checkout_url,omitempty"`

	// NeedsReview marks paid-after-expiry conflicts for manual
	// reconciliation by an admin.
	NeedsReview bool `json:"needs_review,omitempty"`

	User         *User          `json:"user,omitempty"`
	Reservations []*Reservation `json:"reservations,omitempty"`

	types.Timestamps
}
