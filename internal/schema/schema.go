package schema

// Definition is one version of the order event input contract. The
// contract is passed explicitly into the validator at construction so
// multiple versions can coexist if the feed ever evolves.
type Definition struct {
	Version  string
	Document string
}

// orderEventV1 is the closed contract for incoming order events. Any
// top-level key outside the declared set is a rejection.
const orderEventV1 = `{
	"type": "object",
	"properties": {
		"transaction_id": {"type": "string", "minLength": 36},
		"customer_id": {"type": "integer"},
		"customer_name": {"type": "string"},
		"transaction_date": {"type": "string", "format": "date-time"},
		"items": {"type": "array"},
		"cash_payment_pennies": {"type": "integer", "minimum": 0},
		"credit_payment_pennies": {"type": "integer", "minimum": 0},
		"billing_address": {
			"type": "object",
			"properties": {
				"street": {"type": "string"},
				"city": {"type": "string"},
				"state": {"type": "string"},
				"zip_code": {"type": ["integer", "string"]}
			}
		},
		"region": {"type": "string"}
	},
	"required": ["transaction_id", "customer_id", "customer_name", "transaction_date", "items",
		"cash_payment_pennies", "credit_payment_pennies"],
	"additionalProperties": false
}`

// DefaultDefinition returns the current order event contract.
func DefaultDefinition() Definition {
	return Definition{
		Version:  "v1",
		Document: orderEventV1,
	}
}
