package models_test

import (
	"testing"

	"pasar/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusSuccessor(t *testing.T) {
	chain := []models.OrderStatus{
		models.StatusPlaced,
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusPicked,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	}

	for i := 0; i < len(chain)-1; i++ {
		next, ok := chain[i].Successor()
		assert.True(t, ok, "%s should have a successor", chain[i])
		assert.Equal(t, chain[i+1], next)
		assert.True(t, chain[i].CanAdvanceTo(chain[i+1]))
	}

	// Terminal stages have no successor
	for _, s := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		_, ok := s.Successor()
		assert.False(t, ok, "%s should be terminal", s)
		assert.True(t, s.Terminal())
	}

	// Skipping a stage is never legal
	assert.False(t, models.StatusPlaced.CanAdvanceTo(models.StatusPreparing))
	assert.False(t, models.StatusConfirmed.CanAdvanceTo(models.StatusPlaced))
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []models.OrderStatus{
		models.StatusPlaced, models.StatusConfirmed, models.StatusPreparing,
		models.StatusPicked, models.StatusOutForDelivery,
		models.StatusDelivered, models.StatusCancelled,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, models.OrderStatus("shipped").Valid())
	assert.False(t, models.OrderStatus("").Valid())
}

func TestOrderStatusCancellable(t *testing.T) {
	assert.True(t, models.StatusPlaced.Cancellable())
	assert.True(t, models.StatusConfirmed.Cancellable())
	assert.False(t, models.StatusPreparing.Cancellable())
	assert.False(t, models.StatusPicked.Cancellable())
	assert.False(t, models.StatusOutForDelivery.Cancellable())
	assert.False(t, models.StatusDelivered.Cancellable())
	assert.False(t, models.StatusCancelled.Cancellable())
}

func TestCancellationWindowTick(t *testing.T) {
	w := models.CancellationWindow{OrderID: "o1", RemainingSeconds: 2}

	assert.False(t, w.Expired())
	w.Tick()
	assert.Equal(t, 1, w.RemainingSeconds)
	w.Tick()
	assert.Equal(t, 0, w.RemainingSeconds)
	assert.True(t, w.Expired())

	// Ticking an expired window stays at zero
	w.Tick()
	assert.Equal(t, 0, w.RemainingSeconds)
}
