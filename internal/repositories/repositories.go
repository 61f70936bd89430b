package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/backstage/services/orders/internal/models"
)

// OrderRepository persists normalized order records.
type OrderRepository interface {
	// EnsureSchema idempotently creates the orders and order_items
	// tables; safe to call on every process start.
	EnsureSchema(ctx context.Context) error

	// Append inserts one header row and its item rows as a single
	// atomic unit. A header is never visible without its items.
	Append(ctx context.Context, header *models.OrderHeader, items []models.OrderItem) error
}

// orderRepository implements OrderRepository on GORM/Postgres
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// EnsureSchema runs the idempotent table migrations.
func (r *orderRepository) EnsureSchema(ctx context.Context) error {
	if err := models.SetupModels(r.db.WithContext(ctx)); err != nil {
		return errors.Wrap(ErrStorage, err.Error())
	}
	return nil
}

// Append writes the header and all items inside one database
// transaction so the event becomes visible atomically or not at all.
func (r *orderRepository) Append(ctx context.Context, header *models.OrderHeader, items []models.OrderItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return errors.Wrap(err, "failed to insert order header")
		}

		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return errors.Wrap(err, "failed to insert order items")
			}
		}

		return nil
	})

	return translateError(err)
}

// translateError maps driver-level failures onto the repository's error
// taxonomy. Unique-constraint violations become ErrDuplicateKey so the
// caller can distinguish "already processed" from "try again".
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(ErrDuplicateKey, err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Wrap(ErrDuplicateKey, err.Error())
	}

	return errors.Wrap(ErrStorage, err.Error())
}
