package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Statuses only move forward or to cancelled. Delivered and cancelled are
// terminal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed:  true,
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusConfirmed: {
		StatusProcessing: true,
		StatusShipped:    true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

type ShippingAddress struct {
	Street   string `json:"street" db:"street"`
	City     string `json:"city" db:"city"`
	Province string `json:"province" db:"province"`
	ZipCode  string `json:"zip_code" db:"zip_code"`
	Phone    string `json:"phone" db:"phone"`
}

var ErrInvalidAddress = errors.New("all shipping address fields are required")

func (a ShippingAddress) Validate() error {
	for name, value := range map[string]string{
		"street":   a.Street,
		"city":     a.City,
		"province": a.Province,
		"zip_code": a.ZipCode,
		"phone":    a.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is blank", ErrInvalidAddress, name)
		}
	}
	return nil
}

// Item is one order line, captured by value at placement time. Later edits or
// deletions of the referenced product do not alter it.
type Item struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Size      string    `json:"size" db:"size"`
	Color     string    `json:"color" db:"color"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Items           []Item          `json:"items" db:"-"`
	Total           float64         `json:"total" db:"total"`
	Status          Status          `json:"status" db:"status"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
