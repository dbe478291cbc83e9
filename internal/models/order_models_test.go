package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderAdvanceWalksTheFlow(t *testing.T) {
	o := &Order{Status: OrderStatusPending}
	want := []OrderStatus{OrderStatusProcessing, OrderStatusDelivering, OrderStatusCompleted}
	for _, s := range want {
		assert.True(t, o.Advance())
		assert.Equal(t, s, o.Status)
	}

	assert.False(t, o.Advance(), "completed is terminal")
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.True(t, o.Status.IsTerminal())
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "delivering", "completed"} {
		assert.True(t, IsValidOrderStatus(s), s)
	}
	assert.False(t, IsValidOrderStatus("cancelled"))
	assert.False(t, IsValidOrderStatus(""))
}

func TestDeliveryModeIsValid(t *testing.T) {
	assert.True(t, DeliveryModePickup.IsValid())
	assert.True(t, DeliveryModeDelivery.IsValid())
	assert.False(t, DeliveryMode("drone").IsValid())
}
