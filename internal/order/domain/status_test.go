package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false}, // no skipping forward
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusProcessing, false}, // terminal
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false}, // terminal
		{StatusCancelled, StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to, true))
		})
	}
}

func TestStatusTransitions_CancelProcessingDisabled(t *testing.T) {
	assert.False(t, StatusProcessing.CanTransitionTo(StatusCancelled, false))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusShipped, false))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled, false))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentRefunded, false},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentFailed, false},
		{PaymentPaid, PaymentPending, false},
		{PaymentFailed, PaymentPaid, false},   // terminal
		{PaymentRefunded, PaymentPaid, false}, // terminal
		{PaymentRefunded, PaymentPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestValidity(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("unknown").IsValid())
	assert.True(t, PaymentPaid.IsValid())
	assert.False(t, PaymentStatus("unknown").IsValid())
	assert.True(t, PaymentMethodStripe.IsValid())
	assert.False(t, PaymentMethod("bitcoin").IsValid())
}

func TestCanBeReadBy(t *testing.T) {
	order := &Order{CustomerID: "cust-1", Email: "jo@example.com"}

	assert.True(t, order.CanBeReadBy(Requester{CustomerID: "cust-1"}))
	assert.True(t, order.CanBeReadBy(Requester{Email: "jo@example.com"}))
	assert.True(t, order.CanBeReadBy(Requester{CustomerID: "other", Admin: true}))
	assert.False(t, order.CanBeReadBy(Requester{CustomerID: "other", Email: "other@example.com"}))
	assert.False(t, order.CanBeReadBy(Requester{}))

	guest := &Order{Email: "guest@example.com"}
	assert.True(t, guest.CanBeReadBy(Requester{Email: "guest@example.com"}))
	assert.False(t, guest.CanBeReadBy(Requester{}))
}
