package generator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/backstage/services/orders/internal/schema"
)

func TestGeneratedEventsPassValidation(t *testing.T) {
	validator, err := schema.NewValidator(schema.DefaultDefinition())
	require.NoError(t, err)

	g := NewGenerator(1)
	for i := 0; i < 50; i++ {
		raw, err := g.RawEvent()
		require.NoError(t, err)
		require.NoError(t, validator.Validate(raw), "generated event %d: %s", i, raw)
	}
}

func TestGeneratedEventShape(t *testing.T) {
	g := NewGenerator(7)
	event := g.Event()

	require.Len(t, event.TransactionID, 36)
	require.GreaterOrEqual(t, event.CustomerID, 10000)
	require.NotEmpty(t, event.Items)
	for _, item := range event.Items {
		require.Len(t, item.ItemID, 36)
		require.Positive(t, item.Quantity)
		require.Positive(t, item.PricePerUnitPennies)
	}
}

func TestInvalidEventsFailValidation(t *testing.T) {
	validator, err := schema.NewValidator(schema.DefaultDefinition())
	require.NoError(t, err)

	g := NewGenerator(3)
	for i := 0; i < 20; i++ {
		raw, err := g.InvalidEvent()
		require.NoError(t, err)
		require.Error(t, validator.Validate(raw), "invalid event %d unexpectedly passed: %s", i, raw)
	}
}
