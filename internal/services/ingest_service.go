package services

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/orders/internal/cache"
	"example.com/backstage/services/orders/internal/metrics"
	"example.com/backstage/services/orders/internal/normalizer"
	"example.com/backstage/services/orders/internal/repositories"
	"example.com/backstage/services/orders/internal/schema"
	"example.com/backstage/services/orders/internal/search"
	"example.com/backstage/services/orders/internal/tracing"
)

// Status is the outcome of one ingest call
type Status string

// Ingest outcomes
const (
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusDuplicate      Status = "duplicate"
	StatusStorageFailure Status = "storage_failure"
)

// RejectCode narrows a rejection for the transport layer
type RejectCode string

// Rejection codes
const (
	RejectMalformedInput     RejectCode = "malformed_input"
	RejectSchemaViolation    RejectCode = "schema_violation"
	RejectNormalizationError RejectCode = "normalization_error"
)

// Result is the discriminated outcome of ingesting one raw event.
type Result struct {
	Status        Status
	RejectCode    RejectCode
	TransactionID string
	Reason        string
	ItemCount     int
}

// IngestService runs the validate -> normalize -> persist pipeline for
// one raw order event per call. It tolerates concurrent calls; the
// database primary keys arbitrate concurrent submissions of one id.
type IngestService struct {
	validator  *schema.Validator
	normalizer *normalizer.Normalizer
	repo       repositories.OrderRepository
	cache      *cache.RedisCache
	elastic    *search.ElasticClient
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewIngestService creates a new ingest service
func NewIngestService(
	validator *schema.Validator,
	repo repositories.OrderRepository,
	redisCache *cache.RedisCache,
	elasticClient *search.ElasticClient,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *IngestService {
	return &IngestService{
		validator:  validator,
		normalizer: normalizer.NewNormalizer(),
		repo:       repo,
		cache:      redisCache,
		elastic:    elasticClient,
		metrics:    metricsCollector,
		tracer:     tracer,
	}
}

// Ingest processes one raw JSON order event to completion and reports
// the outcome. Failures are detected as close to their source as
// possible and nothing is ever partially persisted.
func (s *IngestService) Ingest(ctx context.Context, raw []byte) Result {
	start := time.Now()
	txn := s.tracer.StartTransaction("ingest-order-event")
	defer s.tracer.EndTransaction(txn)
	defer func() {
		s.metrics.RecordTimer("ingest_pipeline", time.Since(start))
	}()

	event, result := s.parse(raw)
	if result != nil {
		s.tracer.RecordError(txn, errors.New(result.Reason))
		return *result
	}

	if err := s.validator.Validate(raw); err != nil {
		log.Warn().Err(err).Msg("event failed schema validation")
		s.metrics.IncrementCounter("events_rejected")
		s.metrics.RecordError("ingest")
		s.tracer.RecordError(txn, err)
		return Result{
			Status:     StatusRejected,
			RejectCode: RejectSchemaViolation,
			Reason:     err.Error(),
		}
	}

	normalizeSpan := s.tracer.StartSpan("normalize-event", txn)
	header, items, err := s.normalizer.Normalize(event)
	normalizeSpan.End()

	if err != nil {
		// Schema-valid but uncomputable values point at a contract drift;
		// log loudly for investigation.
		log.Error().Err(err).Msg("event failed normalization after passing validation")
		s.metrics.IncrementCounter("events_rejected")
		s.metrics.RecordError("ingest")
		s.tracer.RecordError(txn, err)
		return Result{
			Status:     StatusRejected,
			RejectCode: RejectNormalizationError,
			Reason:     err.Error(),
		}
	}

	s.tracer.AddAttribute(txn, "transaction_id", header.TransactionID)
	s.tracer.AddAttribute(txn, "item_count", len(items))

	// Advisory fast path; the primary keys below are the authority.
	if seen, cacheErr := s.cache.WasIngested(ctx, header.TransactionID); cacheErr != nil {
		log.Warn().Err(cacheErr).Msg("duplicate pre-check unavailable, falling through to storage")
	} else if seen {
		s.metrics.IncrementCounter("events_duplicate")
		return Result{
			Status:        StatusDuplicate,
			TransactionID: header.TransactionID,
			Reason:        "transaction already processed",
		}
	}

	appendSpan := s.tracer.StartSpan("append-order", txn)
	err = s.repo.Append(ctx, header, items)
	appendSpan.End()

	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			log.Info().
				Str("transaction_id", header.TransactionID).
				Msg("duplicate transaction rejected by storage")
			s.metrics.IncrementCounter("events_duplicate")
			s.markIngested(ctx, header.TransactionID)
			return Result{
				Status:        StatusDuplicate,
				TransactionID: header.TransactionID,
				Reason:        "transaction already processed",
			}
		}

		log.Error().
			Err(err).
			Str("transaction_id", header.TransactionID).
			Msg("failed to persist order")
		s.metrics.IncrementCounter("storage_failures")
		s.metrics.RecordError("ingest")
		s.tracer.RecordError(txn, err)
		return Result{
			Status:        StatusStorageFailure,
			TransactionID: header.TransactionID,
			Reason:        err.Error(),
		}
	}

	s.markIngested(ctx, header.TransactionID)

	// Indexing is best-effort and never fails an accepted ingest.
	if s.elastic != nil {
		indexSpan := s.tracer.StartSpan("index-order", txn)
		if indexErr := s.elastic.IndexOrder(ctx, header, items); indexErr != nil {
			log.Warn().
				Err(indexErr).
				Str("transaction_id", header.TransactionID).
				Msg("failed to index order")
		}
		indexSpan.End()
	}

	s.metrics.IncrementCounter("events_accepted")
	s.metrics.IncrementCounterBy("items_ingested", int64(len(items)))
	s.metrics.RecordSuccess("ingest")

	log.Info().
		Str("transaction_id", header.TransactionID).
		Int("items", len(items)).
		Float64("order_total", header.OrderTotal).
		Msg("order event ingested")

	return Result{
		Status:        StatusAccepted,
		TransactionID: header.TransactionID,
		ItemCount:     len(items),
	}
}

// parse decodes the raw payload into a JSON object, preserving number
// precision. Anything that is not an object is malformed input.
func (s *IngestService) parse(raw []byte) (map[string]interface{}, *Result) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var event map[string]interface{}
	if err := dec.Decode(&event); err != nil {
		// The original payload is logged so malformed requests can be
		// investigated later.
		log.Warn().Str("payload", string(raw)).Msg("malformed JSON payload")
		s.metrics.IncrementCounter("events_rejected")
		s.metrics.RecordError("ingest")
		return nil, &Result{
			Status:     StatusRejected,
			RejectCode: RejectMalformedInput,
			Reason:     "payload is not a JSON object",
		}
	}

	return event, nil
}

func (s *IngestService) markIngested(ctx context.Context, transactionID string) {
	if err := s.cache.MarkIngested(ctx, transactionID); err != nil {
		log.Warn().Err(err).Msg("failed to record ingested marker")
	}
}
