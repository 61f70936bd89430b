package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/orders/config"
	"example.com/backstage/services/orders/internal/metrics"
	"example.com/backstage/services/orders/internal/models"
	"example.com/backstage/services/orders/internal/normalizer"
	"example.com/backstage/services/orders/internal/repositories"
	"example.com/backstage/services/orders/internal/schema"
	"example.com/backstage/services/orders/internal/tracing"
)

// Mock repository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderRepository) Append(ctx context.Context, header *models.OrderHeader, items []models.OrderItem) error {
	args := m.Called(ctx, header, items)
	return args.Error(0)
}

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

func newTestService(t *testing.T, repo repositories.OrderRepository) *IngestService {
	t.Helper()

	validator, err := schema.NewValidator(schema.DefaultDefinition())
	require.NoError(t, err)

	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)

	return &IngestService{
		validator:  validator,
		normalizer: normalizer.NewNormalizer(),
		repo:       repo,
		metrics:    metrics.NewMetrics(),
		tracer:     tracer,
	}
}

func TestIngestAcceptsValidEvent(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("Append", mock.Anything, mock.AnythingOfType("*models.OrderHeader"), mock.AnythingOfType("[]models.OrderItem")).
		Return(nil).
		Run(func(args mock.Arguments) {
			header := args.Get(1).(*models.OrderHeader)
			items := args.Get(2).([]models.OrderItem)
			require.Equal(t, "Jane Doe", header.CustomerName)
			require.Equal(t, 15.00, header.OrderTotal)
			require.Len(t, items, 1)
			require.Equal(t, header.TransactionID, items[0].TransactionID)
		})

	svc := newTestService(t, repo)
	result := svc.Ingest(context.Background(), []byte(validEvent))

	require.Equal(t, StatusAccepted, result.Status)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", result.TransactionID)
	require.Equal(t, 1, result.ItemCount)
	repo.AssertExpectations(t)
}

func TestIngestRejectsMalformedPayloadWithoutPersisting(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := newTestService(t, repo)

	result := svc.Ingest(context.Background(), []byte(`{not json`))

	require.Equal(t, StatusRejected, result.Status)
	require.Equal(t, RejectMalformedInput, result.RejectCode)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestRejectsSchemaViolationWithoutPersisting(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := newTestService(t, repo)

	// transaction_id missing entirely
	result := svc.Ingest(context.Background(), []byte(`{
		"customer_id": 42,
		"customer_name": "Jane Doe",
		"transaction_date": "2024-01-01T00:00:00Z",
		"items": [],
		"cash_payment_pennies": 0,
		"credit_payment_pennies": 0
	}`))

	require.Equal(t, StatusRejected, result.Status)
	require.Equal(t, RejectSchemaViolation, result.RejectCode)
	require.Contains(t, result.Reason, "transaction_id")
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestRejectsUncomputableItemValues(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := newTestService(t, repo)

	result := svc.Ingest(context.Background(), []byte(`{
		"transaction_id": "11111111-1111-1111-1111-111111111111",
		"customer_id": 42,
		"customer_name": "Jane Doe",
		"transaction_date": "2024-01-01T00:00:00Z",
		"items": [
			{"item_id": "a1", "item_name": "Widget", "quantity": 2, "price_per_unit_pennies": "free"}
		],
		"cash_payment_pennies": 0,
		"credit_payment_pennies": 0
	}`))

	require.Equal(t, StatusRejected, result.Status)
	require.Equal(t, RejectNormalizationError, result.RejectCode)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestAcceptsEmptyItems(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("Append", mock.Anything, mock.AnythingOfType("*models.OrderHeader"), mock.AnythingOfType("[]models.OrderItem")).
		Return(nil).
		Run(func(args mock.Arguments) {
			items := args.Get(2).([]models.OrderItem)
			require.Empty(t, items)
		})

	svc := newTestService(t, repo)
	result := svc.Ingest(context.Background(), []byte(`{
		"transaction_id": "11111111-1111-1111-1111-111111111111",
		"customer_id": 42,
		"customer_name": "Jane Doe",
		"transaction_date": "2024-01-01T00:00:00Z",
		"items": [],
		"cash_payment_pennies": 100,
		"credit_payment_pennies": 0
	}`))

	require.Equal(t, StatusAccepted, result.Status)
	require.Equal(t, 0, result.ItemCount)
	repo.AssertExpectations(t)
}

func TestIngestReportsDuplicate(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("Append", mock.Anything, mock.Anything, mock.Anything).
		Return(repositories.ErrDuplicateKey)

	svc := newTestService(t, repo)
	result := svc.Ingest(context.Background(), []byte(validEvent))

	require.Equal(t, StatusDuplicate, result.Status)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", result.TransactionID)
}

func TestIngestReportsStorageFailure(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("Append", mock.Anything, mock.Anything, mock.Anything).
		Return(repositories.ErrStorage)

	svc := newTestService(t, repo)
	result := svc.Ingest(context.Background(), []byte(validEvent))

	require.Equal(t, StatusStorageFailure, result.Status)
}
