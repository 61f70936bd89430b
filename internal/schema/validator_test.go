package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validEvent = `{
	"transaction_id": "11111111-1111-1111-1111-111111111111",
	"customer_id": 42,
	"customer_name": "Mrs. Jane Doe",
	"transaction_date": "2024-01-01T00:00:00Z",
	"items": [
		{"item_id": "a1", "item_name": "Widget", "quantity": 2, "price_per_unit_pennies": 150}
	],
	"cash_payment_pennies": 1000,
	"credit_payment_pennies": 500,
	"billing_address": {"street": "1 Main St", "city": "Springfield", "state": "IL", "zip_code": 62704},
	"region": "US"
}`

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(DefaultDefinition())
	require.NoError(t, err)
	return v
}

func TestValidateAcceptsConformingEvent(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.Validate([]byte(validEvent)))
}

func TestValidateAcceptsEventWithoutOptionalFields(t *testing.T) {
	v := newTestValidator(t)
	event := `{
		"transaction_id": "11111111-1111-1111-1111-111111111111",
		"customer_id": 42,
		"customer_name": "Jane Doe",
		"transaction_date": "2024-01-01T00:00:00Z",
		"items": [],
		"cash_payment_pennies": 0,
		"credit_payment_pennies": 0
	}`
	require.NoError(t, v.Validate([]byte(event)))
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, `"transaction_id": "11111111-1111-1111-1111-111111111111",`, "", 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Contains(t, violation.Message, "transaction_id")
}

func TestValidateRejectsShortTransactionID(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, "11111111-1111-1111-1111-111111111111", "short-id", 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "transaction_id", violation.Field)
}

func TestValidateRejectsStringCustomerID(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, `"customer_id": 42`, `"customer_id": "42"`, 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "customer_id", violation.Field)
}

func TestValidateRejectsNonIntegerPennies(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, `"cash_payment_pennies": 1000`, `"cash_payment_pennies": 10.5`, 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)
}

func TestValidateRejectsNonArrayItems(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, `"items": [
		{"item_id": "a1", "item_name": "Widget", "quantity": 2, "price_per_unit_pennies": 150}
	]`, `"items": "none"`, 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)
}

func TestValidateRejectsUnexpectedTopLevelKey(t *testing.T) {
	v := newTestValidator(t)

	event := strings.Replace(validEvent, `"region": "US"`, `"region": "US", "loyalty_tier": "gold"`, 1)
	err := v.Validate([]byte(event))
	require.Error(t, err)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Contains(t, violation.Message, "loyalty_tier")
}

func TestValidatorReportsVersion(t *testing.T) {
	v := newTestValidator(t)
	require.Equal(t, "v1", v.Version())
}
