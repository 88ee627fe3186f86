package domain

// Status tracks fulfillment progress. Forward chain is
// pending -> processing -> shipped -> delivered, with cancellation as the
// only early exit. Cancelling a processing order is a policy switch.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the status machine permits the move.
// No skipping forward, no leaving a terminal state.
func (s Status) CanTransitionTo(next Status, allowCancelProcessing bool) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		if next == StatusCancelled {
			return allowCancelProcessing
		}
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// PaymentStatus is independent of fulfillment status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentFailed || p == PaymentRefunded
}

func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch p {
	case PaymentPending:
		return next == PaymentPaid || next == PaymentFailed
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

func (p PaymentStatus) String() string {
	return string(p)
}
