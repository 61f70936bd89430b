package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderHeader is the single normalized row produced per order event.
// Column types mirror the relational contract exactly; monetary columns
// hold 2-decimal dollar values converted from the pennies in the input.
type OrderHeader struct {
	TransactionID        string    `gorm:"column:transaction_id;type:varchar(36);primaryKey" json:"transaction_id"`
	IngestTimestamp      time.Time `gorm:"column:ingest_timestamp;type:timestamp" json:"ingest_timestamp"`
	CustomerID           int64     `gorm:"column:customer_id;type:integer" json:"customer_id"`
	CustomerName         string    `gorm:"column:customer_name;type:varchar(500)" json:"customer_name"`
	TransactionDate      time.Time `gorm:"column:transaction_date;type:timestamp" json:"transaction_date"`
	CashPaymentTotal     float64   `gorm:"column:cash_payment_total;type:float" json:"cash_payment_total"`
	CreditPaymentTotal   float64   `gorm:"column:credit_payment_total;type:float" json:"credit_payment_total"`
	OrderTotal           float64   `gorm:"column:order_total;type:float" json:"order_total"`
	BillingCountry       string    `gorm:"column:billing_country;type:varchar(500)" json:"billing_country"`
	BillingStreetAddress string    `gorm:"column:billing_street_address;type:varchar(500)" json:"billing_street_address"`
	BillingCity          string    `gorm:"column:billing_city;type:varchar(500)" json:"billing_city"`
	BillingState         string    `gorm:"column:billing_state;type:varchar(2)" json:"billing_state"`
	BillingZipCode       string    `gorm:"column:billing_zip_code;type:varchar(5)" json:"billing_zip_code"`
}

// TableName overrides the gorm table name
func (OrderHeader) TableName() string {
	return "orders"
}

// OrderItem is one normalized line-item row. The composite primary key
// on (transaction_id, item_id) rejects re-submission of the same item.
type OrderItem struct {
	TransactionID string  `gorm:"column:transaction_id;type:varchar(36);primaryKey" json:"transaction_id"`
	ItemID        string  `gorm:"column:item_id;type:varchar(36);primaryKey" json:"item_id"`
	ItemName      string  `gorm:"column:item_name;type:varchar(500)" json:"item_name"`
	Quantity      int     `gorm:"column:quantity;type:integer" json:"quantity"`
	PricePerUnit  float64 `gorm:"column:price_per_unit;type:float" json:"price_per_unit"`
}

// TableName overrides the gorm table name
func (OrderItem) TableName() string {
	return "order_items"
}

// SetupModels configures GORM models and runs migrations. Creation is
// idempotent, so it is safe to call on every process start.
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&OrderHeader{},
		&OrderItem{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
