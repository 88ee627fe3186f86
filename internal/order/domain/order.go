package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransition = errors.New("transition not permitted")
	ErrAccessDenied      = errors.New("access denied")
)

// ValidationError reports a malformed or missing submission field along
// with its path, e.g. "items[2].quantity".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodStripe     PaymentMethod = "stripe"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodStripe:
		return true
	}
	return false
}

// OrderItem is an immutable snapshot taken at order time. UnitPrice is the
// price the shopper committed to, decoupled from later catalog changes.
type OrderItem struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice int64             `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Variants  map[string]string `json:"variants,omitempty"`
	LineTotal int64             `json:"line_total"`
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string // empty for guest checkout
	Email           string
	Items           []OrderItem
	Currency        string
	Subtotal        int64
	Tax             int64
	Shipping        int64
	Total           int64
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   PaymentMethod
	ShippingAddress *ShippingAddress
	Notes           string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Requester is the identity attached to read and transition requests.
// A zero Requester is an anonymous caller.
type Requester struct {
	CustomerID string
	Email      string
	Admin      bool
}

func (r Requester) Anonymous() bool {
	return r.CustomerID == "" && r.Email == ""
}

// CanBeReadBy allows the authenticated owner, a requester whose account
// email matches the order's email, and admins. Anonymous callers never
// read orders, even ones they created.
func (o *Order) CanBeReadBy(r Requester) bool {
	if r.Admin {
		return true
	}
	if r.Anonymous() {
		return false
	}
	if o.CustomerID != "" && o.CustomerID == r.CustomerID {
		return true
	}
	return r.Email != "" && o.Email == r.Email
}
