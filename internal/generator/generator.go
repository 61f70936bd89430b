package generator

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pkg/errors"
)

// Event is a synthetic order event matching the input contract.
type Event struct {
	TransactionID        string   `json:"transaction_id"`
	CustomerID           int      `json:"customer_id"`
	CustomerName         string   `json:"customer_name"`
	TransactionDate      string   `json:"transaction_date"`
	Items                []Item   `json:"items"`
	CashPaymentPennies   int      `json:"cash_payment_pennies"`
	CreditPaymentPennies int      `json:"credit_payment_pennies"`
	BillingAddress       *Address `json:"billing_address,omitempty"`
	Region               string   `json:"region,omitempty"`
}

// Item is one synthetic line item
type Item struct {
	ItemID              string `json:"item_id"`
	ItemName            string `json:"item_name"`
	Quantity            int    `json:"quantity"`
	PricePerUnitPennies int    `json:"price_per_unit_pennies"`
}

// Address is the nested billing address object
type Address struct {
	Street  string      `json:"street"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	ZipCode interface{} `json:"zip_code"`
}

// honorifics occasionally prefixed to generated names so the
// normalization path gets exercised by generated traffic.
var honorifics = []string{"Mr. ", "Mrs. "}

// Generator produces synthetic order events for the traffic generator
// and for local testing. A fixed seed gives a reproducible stream.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator seeded for reproducibility; pass 0
// for a random stream.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Event generates one synthetic order event.
func (g *Generator) Event() Event {
	f := g.faker

	itemCount := f.Number(1, 10)
	items := make([]Item, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, Item{
			ItemID:              f.UUID(),
			ItemName:            f.Word(),
			Quantity:            f.Number(1, 5),
			PricePerUnitPennies: f.Number(100, 5000),
		})
	}

	name := f.Name()
	if f.Bool() {
		name = f.RandomString(honorifics) + name
	}

	now := time.Now().UTC()
	transactionDate := f.DateRange(now.AddDate(0, -6, 0), now).UTC()

	// Zip codes are emitted as integers, matching the historical feed.
	zip := f.Number(10000, 99999)

	return Event{
		TransactionID:        f.UUID(),
		CustomerID:           f.Number(10000, 99999),
		CustomerName:         name,
		TransactionDate:      transactionDate.Format(time.RFC3339),
		Items:                items,
		CashPaymentPennies:   f.Number(0, 10000),
		CreditPaymentPennies: f.Number(0, 20000),
		BillingAddress: &Address{
			Street:  f.Street(),
			City:    f.City(),
			State:   f.StateAbr(),
			ZipCode: zip,
		},
		Region: "US",
	}
}

// RawEvent generates one event serialized to JSON.
func (g *Generator) RawEvent() ([]byte, error) {
	payload, err := json.Marshal(g.Event())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal generated event")
	}
	return payload, nil
}

// InvalidEvent generates an event that violates the input contract,
// for exercising the rejection path end to end.
func (g *Generator) InvalidEvent() ([]byte, error) {
	event := g.Event()

	raw := map[string]interface{}{
		"transaction_id":         event.TransactionID,
		"customer_id":            event.CustomerID,
		"customer_name":          event.CustomerName,
		"transaction_date":       event.TransactionDate,
		"items":                  event.Items,
		"cash_payment_pennies":   event.CashPaymentPennies,
		"credit_payment_pennies": event.CreditPaymentPennies,
	}

	// Pick one of a few contract violations.
	switch g.faker.Number(0, 2) {
	case 0:
		delete(raw, "transaction_id")
	case 1:
		raw["customer_id"] = "not-a-number"
	default:
		raw["surprise_field"] = true
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal generated event")
	}
	return payload, nil
}
