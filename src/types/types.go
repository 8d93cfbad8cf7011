package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type TicketTypeStatus string

const (
	TICKET_TYPE_DRAFT  TicketTypeStatus = "draft"
	TICKET_TYPE_OPEN   TicketTypeStatus = "open"
	TICKET_TYPE_CLOSED TicketTypeStatus = "closed"
)

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_EXPIRED   ReservationStatus = "expired"
	RESERVATION_CANCELED  ReservationStatus = "canceled"
)

type OrderStatus string

const (
	ORDER_PENDING  OrderStatus = "pending"
	ORDER_PAID     OrderStatus = "paid"
	ORDER_FAILED   OrderStatus = "failed"
	ORDER_CANCELED OrderStatus = "canceled"
)

type ETicketStatus string

const (
	ETICKET_ACTIVE  ETicketStatus = "active"
	ETICKET_USED    ETicketStatus = "used"
	ETICKET_EXPIRED ETicketStatus = "expired"
)

// PaymentStatus is the canonical status a provider notification is reduced
// to before it reaches the reconciler.
type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_SUCCEEDED PaymentStatus = "succeeded"
	PAYMENT_FAILED    PaymentStatus = "failed"
	PAYMENT_EXPIRED   PaymentStatus = "expired"
	PAYMENT_CANCELED  PaymentStatus = "canceled"
)

const (
	PROVIDER_STRIPE   = "stripe"
	PROVIDER_PAYMONGO = "paymongo"
)

var SupportedProviders = []string{PROVIDER_STRIPE, PROVIDER_PAYMONGO}

type ReservationItem struct {
	TicketTypeID uint `json:"ticket_type" binding:"required"`
	Qty          uint `json:"qty" binding:"required,min=1"`
}

type CreateReservationRequestBody struct {
	Provider string            `json:"provider" binding:"required,paymentprovider"`
	Items    []ReservationItem `json:"items" binding:"required,min=1,dive"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}
