package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"example.com/backstage/services/orders/internal/models"
)

// Error reports a value that passed schema validation but could not be
// normalized, which usually indicates a contract/implementation mismatch.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("cannot normalize %s: %s", e.Field, e.Message)
}

// honorificPrefixes are stripped from the start of customer_name, in
// order, each at most once.
var honorificPrefixes = []string{"Mrs. ", "Mr. "}

// transactionDateLayouts accepted for transaction_date. The feed mostly
// sends RFC3339 but some producers omit the zone offset.
var transactionDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Normalizer splits one validated order event into a header record and
// zero-or-more line-item records. It performs no I/O; the only
// non-deterministic input is the ingest clock.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize converts a validated event into one OrderHeader and one
// OrderItem per entry in items. An empty items array is valid and
// yields zero item rows. The input map is never mutated.
//
// All pennies amounts are carried as integers and converted to 2-decimal
// dollar values with round-half-up only at the output boundary.
func (n *Normalizer) Normalize(event map[string]interface{}) (*models.OrderHeader, []models.OrderItem, error) {
	// transaction_id presence is guaranteed by validation, but everything
	// downstream keys off it, so check again rather than panic later.
	transactionID, err := stringField(event, "transaction_id")
	if err != nil {
		return nil, nil, err
	}

	customerID, err := intField(event, "customer_id")
	if err != nil {
		return nil, nil, err
	}

	customerName, err := stringField(event, "customer_name")
	if err != nil {
		return nil, nil, err
	}

	transactionDate, err := dateField(event, "transaction_date")
	if err != nil {
		return nil, nil, err
	}

	cashPennies, err := intField(event, "cash_payment_pennies")
	if err != nil {
		return nil, nil, err
	}

	creditPennies, err := intField(event, "credit_payment_pennies")
	if err != nil {
		return nil, nil, err
	}

	cashTotal := penniesToDollars(cashPennies)
	creditTotal := penniesToDollars(creditPennies)
	orderTotal := cashTotal.Add(creditTotal).Round(2)

	header := &models.OrderHeader{
		TransactionID:      transactionID,
		IngestTimestamp:    n.now().UTC(),
		CustomerID:         customerID,
		CustomerName:       stripHonorifics(customerName),
		TransactionDate:    transactionDate,
		CashPaymentTotal:   cashTotal.InexactFloat64(),
		CreditPaymentTotal: creditTotal.InexactFloat64(),
		OrderTotal:         orderTotal.InexactFloat64(),
	}

	flattenBillingAddress(event, header)

	items, err := fanOutItems(event, transactionID)
	if err != nil {
		return nil, nil, err
	}

	return header, items, nil
}

// fanOutItems expands the items array into line-item rows, attaching the
// parent transaction id to every row.
func fanOutItems(event map[string]interface{}, transactionID string) ([]models.OrderItem, error) {
	raw, ok := event["items"].([]interface{})
	if !ok {
		return nil, &Error{Field: "items", Message: "expected an array"}
	}

	items := make([]models.OrderItem, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, &Error{Field: fmt.Sprintf("items[%d]", i), Message: "expected an object"}
		}

		itemID, err := coerceString(obj["item_id"], fmt.Sprintf("items[%d].item_id", i))
		if err != nil {
			return nil, err
		}

		itemName, err := coerceString(obj["item_name"], fmt.Sprintf("items[%d].item_name", i))
		if err != nil {
			return nil, err
		}

		quantity, err := coerceInt(obj["quantity"], fmt.Sprintf("items[%d].quantity", i))
		if err != nil {
			return nil, err
		}

		pennies, err := coerceInt(obj["price_per_unit_pennies"], fmt.Sprintf("items[%d].price_per_unit_pennies", i))
		if err != nil {
			return nil, err
		}

		items = append(items, models.OrderItem{
			TransactionID: transactionID,
			ItemID:        itemID,
			ItemName:      itemName,
			Quantity:      int(quantity),
			PricePerUnit:  penniesToDollars(pennies).InexactFloat64(),
		})
	}

	return items, nil
}

// flattenBillingAddress lifts the nested billing_address object into the
// flat billing_* header columns and renames region to billing_country.
// Both inputs are optional; absent values leave the columns empty.
func flattenBillingAddress(event map[string]interface{}, header *models.OrderHeader) {
	if region, ok := event["region"].(string); ok {
		header.BillingCountry = region
	}

	address, ok := event["billing_address"].(map[string]interface{})
	if !ok {
		return
	}

	if street, ok := address["street"].(string); ok {
		header.BillingStreetAddress = street
	}
	if city, ok := address["city"].(string); ok {
		header.BillingCity = city
	}
	if state, ok := address["state"].(string); ok {
		header.BillingState = state
	}
	// zip codes arrive as either integers or strings depending on the
	// producer; both are stored as the string column value.
	if zip, err := coerceString(address["zip_code"], "billing_address.zip_code"); err == nil {
		header.BillingZipCode = zip
	}
}

// stripHonorifics removes each known honorific prefix at most once.
func stripHonorifics(name string) string {
	for _, prefix := range honorificPrefixes {
		name = strings.TrimPrefix(name, prefix)
	}
	return name
}

// penniesToDollars converts an integer minor-unit amount into a decimal
// dollar amount rounded half-up to 2 places.
func penniesToDollars(pennies int64) decimal.Decimal {
	return decimal.New(pennies, -2).Round(2)
}

func stringField(event map[string]interface{}, key string) (string, error) {
	value, ok := event[key]
	if !ok || value == nil {
		return "", &Error{Field: key, Message: "missing value"}
	}
	s, ok := value.(string)
	if !ok {
		return "", &Error{Field: key, Message: fmt.Sprintf("expected a string, got %T", value)}
	}
	return s, nil
}

func intField(event map[string]interface{}, key string) (int64, error) {
	value, ok := event[key]
	if !ok || value == nil {
		return 0, &Error{Field: key, Message: "missing value"}
	}
	return coerceInt(value, key)
}

func dateField(event map[string]interface{}, key string) (time.Time, error) {
	raw, err := stringField(event, key)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range transactionDateLayouts {
		if t, parseErr := time.Parse(layout, raw); parseErr == nil {
			return t, nil
		}
	}

	return time.Time{}, &Error{Field: key, Message: fmt.Sprintf("unparseable date-time %q", raw)}
}

// coerceString renders identifier and name values as strings regardless
// of their wire representation.
func coerceString(value interface{}, field string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", &Error{Field: field, Message: "missing value"}
	default:
		return "", &Error{Field: field, Message: fmt.Sprintf("cannot represent %T as a string", value)}
	}
}

// coerceInt interprets a JSON value as a whole number. The feed has
// historically sent customer_id as both a string and an integer;
// numeric strings are accepted, anything else is an error.
func coerceInt(value interface{}, field string) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, &Error{Field: field, Message: fmt.Sprintf("not a whole number: %s", v.String())}
		}
		return n, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, &Error{Field: field, Message: fmt.Sprintf("not a whole number: %v", v)}
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, &Error{Field: field, Message: fmt.Sprintf("non-numeric value %q", v)}
		}
		return n, nil
	case nil:
		return 0, &Error{Field: field, Message: "missing value"}
	default:
		return 0, &Error{Field: field, Message: fmt.Sprintf("cannot interpret %T as a number", value)}
	}
}
