package models_test

import (
	"testing"

	"pasar/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCartLineOperations(t *testing.T) {
	cart := models.Cart{UserID: "u1"}

	cart.AddLine(models.CartLine{ProductID: "p1", Title: "Kopi", UnitPriceMinor: 1000}, 2)
	cart.AddLine(models.CartLine{ProductID: "p2", Title: "Teh", UnitPriceMinor: 500}, 1)
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(2500), cart.SubtotalMinor())

	// Same product merges into the existing line
	cart.AddLine(models.CartLine{ProductID: "p1", Title: "Kopi", UnitPriceMinor: 1000}, 3)
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, 5, cart.Lines[0].Quantity)

	cart.SetLineQuantity("p2", 4)
	assert.Equal(t, 4, cart.Lines[1].Quantity)

	// Zero quantity drops the line instead of keeping it at zero
	cart.SetLineQuantity("p1", 0)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, "p2", cart.Lines[0].ProductID)

	cart.RemoveLine("p2")
	assert.True(t, cart.Empty())
	assert.Equal(t, int64(0), cart.SubtotalMinor())
}

func TestCartSnapshotLines(t *testing.T) {
	cart := models.Cart{UserID: "u1"}
	cart.AddLine(models.CartLine{ProductID: "p3", Title: "Roti", UnitPriceMinor: 700}, 1)

	snapshot := cart.SnapshotLines()
	cart.SetLineQuantity("p3", 9)

	// The snapshot is detached from later cart mutation
	assert.Equal(t, 1, snapshot[0].Quantity)
}
