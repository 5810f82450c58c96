package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShippingAddress_Validate(t *testing.T) {
	addr := ShippingAddress{
		Street:   "12 Rizal Ave",
		City:     "Manila",
		Province: "Metro Manila",
		ZipCode:  "1000",
		Phone:    "+63 912 345 6789",
	}
	assert.NoError(t, addr.Validate())

	addr.Phone = ""
	assert.ErrorIs(t, addr.Validate(), ErrInvalidAddress)
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, PaymentCashOnDelivery.Valid())
	assert.True(t, PaymentCard.Valid())
	assert.False(t, PaymentMethod("wire").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestCanTransition_TerminalStates(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, next := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
			assert.False(t, CanTransition(terminal, next), "%s -> %s must be rejected", terminal, next)
		}
	}
}
