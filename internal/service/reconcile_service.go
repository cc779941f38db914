package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/internal/telemetry"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const snapshotTTL = 10 * time.Minute

// candidate pairs a verification identifier with the place it came from.
// The source label feeds the verification_attempts metric.
type candidate struct {
	source string
	id     string
}

// ReconcileServiceImpl implements ports.ReconcileService.
type ReconcileServiceImpl struct {
	orderRepo ports.OrderRepository
	snapshot  ports.OrderSnapshotCache
	verifier  ports.VerificationClient
	metrics   *telemetry.Metrics
	log       zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	orderRepo ports.OrderRepository,
	snapshot ports.OrderSnapshotCache,
	verifier ports.VerificationClient,
	metrics *telemetry.Metrics,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		orderRepo: orderRepo,
		snapshot:  snapshot,
		verifier:  verifier,
		metrics:   metrics,
		log:       log,
	}
}

// Reconcile folds one gateway callback into a ReconciliationResult.
//
// Gateway-reported failures are classified and returned without touching
// storage. On success the order is resolved from the snapshot cache (then
// the durable store), the payment is verified against the gateway, and the
// verified transaction is merged into the order record. Verification misses
// and merge conflicts are recorded as anomalies on the result rather than
// returned as errors: a degraded result is still a result.
func (s *ReconcileServiceImpl) Reconcile(ctx context.Context, params domain.CallbackParams) (*domain.ReconciliationResult, error) {
	timer := prometheus.NewTimer(s.metrics.ReconcileDuration)
	defer timer.ObserveDuration()

	result := &domain.ReconciliationResult{
		AttemptID:         uuid.New(),
		TransactionID:     params.GatewayTransactionID,
		MerchantReference: params.MerchantReference,
		BankCode:          params.BankCode,
		CardType:          params.CardType,
		OrderInfo:         params.OrderInfo,
	}
	if amount, ok := domain.NormalizeAmount(params.AmountMinorUnits); ok {
		result.Amount = amount
	}
	if payDate, ok := domain.ParsePayDate(params.PayDateRaw); ok {
		result.PaymentDate = &payDate
	}

	if params.ResponseCode != domain.ResponseCodeSuccess {
		category, message := domain.Classify(params.ResponseCode)
		result.Outcome = domain.OutcomeFailure
		result.ErrorCategory = category
		result.ErrorMessage = message
		s.metrics.CallbacksTotal.WithLabelValues(string(domain.OutcomeFailure)).Inc()
		s.log.Info().
			Str("attempt_id", result.AttemptID.String()).
			Str("response_code", params.ResponseCode).
			Str("category", string(category)).
			Msg("gateway reported failure")
		return result, nil
	}

	result.Outcome = domain.OutcomeSuccess

	order := s.resolveOrder(ctx, params, result)

	verified, ok := s.verify(ctx, order, params)
	if !ok {
		result.Anomaly = domain.AnomalyVerificationMiss
		s.metrics.CallbacksTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
		s.log.Warn().
			Str("attempt_id", result.AttemptID.String()).
			Str("merchant_reference", params.MerchantReference).
			Msg("no verification candidate confirmed, result degraded")
		return result, nil
	}

	txnID := verified.TransactionID
	if txnID == "" {
		txnID = params.GatewayTransactionID
	}
	// The verifier's answer is canonical: it replaces whatever transaction
	// id the callback carried.
	result.TransactionID = txnID

	switch {
	case verified.Status != domain.OrderStatusPaid:
		result.Anomaly = domain.AnomalyVerificationMiss
		s.log.Warn().
			Str("attempt_id", result.AttemptID.String()).
			Str("transaction_id", txnID).
			Str("verified_status", string(verified.Status)).
			Msg("verifier confirmed transaction but not as paid")
	case order == nil:
		s.log.Warn().
			Str("attempt_id", result.AttemptID.String()).
			Str("transaction_id", txnID).
			Msg("payment verified but order unresolved, skipping merge")
	default:
		if err := s.mergeVerified(ctx, order, txnID, params, result); err != nil {
			return nil, err
		}
	}

	s.metrics.CallbacksTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	s.log.Info().
		Str("attempt_id", result.AttemptID.String()).
		Str("transaction_id", result.TransactionID).
		Str("anomaly", string(result.Anomaly)).
		Msg("callback reconciled")
	return result, nil
}

// resolveOrder decodes the merchant reference and loads the order, snapshot
// cache first. A nil return means the engine proceeds without an order: the
// callback outcome is still reported, only the merge is skipped.
func (s *ReconcileServiceImpl) resolveOrder(ctx context.Context, params domain.CallbackParams, result *domain.ReconciliationResult) *domain.Order {
	if params.MerchantReference == "" {
		s.log.Warn().
			Str("attempt_id", result.AttemptID.String()).
			Msg("callback carries no merchant reference")
		return nil
	}

	orderID, err := domain.DecodeReference(params.MerchantReference)
	if err != nil {
		s.log.Warn().
			Str("attempt_id", result.AttemptID.String()).
			Str("merchant_reference", params.MerchantReference).
			Msg("merchant reference does not decode to an order id")
		return nil
	}
	result.OrderID = &orderID

	order, err := s.snapshot.Get(ctx, orderID)
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("snapshot read failed, falling through to store")
	}
	if order != nil {
		return order
	}

	order, err = s.orderRepo.Get(ctx, orderID)
	if err != nil {
		s.log.Error().Err(err).Int64("order_id", orderID).Msg("order lookup failed")
		return nil
	}
	if order == nil {
		s.log.Warn().Int64("order_id", orderID).Msg("reference decodes to unknown order")
		return nil
	}
	return order
}

// verify queries the candidates in priority order and stops at the first
// confirmed one. Candidates are deduplicated so the same identifier is never
// queried twice in one attempt.
func (s *ReconcileServiceImpl) verify(ctx context.Context, order *domain.Order, params domain.CallbackParams) (ports.VerificationOutcome, bool) {
	var candidates []candidate
	seen := make(map[string]bool)
	add := func(source, id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, candidate{source: source, id: id})
	}
	if order != nil && order.TransactionID != nil {
		add("cached", *order.TransactionID)
	}
	add("gateway", params.GatewayTransactionID)
	add("reference", params.MerchantReference)

	for _, cand := range candidates {
		outcome := s.verifier.Query(ctx, cand.id)
		s.metrics.VerificationAttempts.WithLabelValues(cand.source, strings.ToLower(string(outcome.Kind))).Inc()
		switch outcome.Kind {
		case ports.VerificationVerified:
			return outcome, true
		case ports.VerificationTransportError:
			s.log.Warn().Err(outcome.Err).
				Str("source", cand.source).
				Str("candidate_id", cand.id).
				Msg("verification query failed, trying next candidate")
		default:
			s.log.Debug().
				Str("source", cand.source).
				Str("candidate_id", cand.id).
				Msg("candidate not found by verifier")
		}
	}
	return ports.VerificationOutcome{}, false
}

// mergeVerified records the verified payment on the order. A repeat delivery
// of an already recorded transaction is a no-op; a differing transaction id
// on a PAID order is a conflict anomaly and never overwrites the record.
// Only infrastructure failures surface as errors.
func (s *ReconcileServiceImpl) mergeVerified(ctx context.Context, order *domain.Order, txnID string, params domain.CallbackParams, result *domain.ReconciliationResult) error {
	if order.IsPaid() && order.TransactionID != nil && *order.TransactionID == txnID {
		result.OrderID = &order.ID
		s.log.Debug().
			Int64("order_id", order.ID).
			Str("transaction_id", txnID).
			Msg("order already reconciled, skipping merge")
		return nil
	}

	status := domain.OrderStatusPaid
	payDate := time.Now().UTC()
	patch := domain.OrderPatch{
		Status:        &status,
		PaymentDate:   &payDate,
		TransactionID: &txnID,
	}
	if params.MerchantReference != "" {
		ref := params.MerchantReference
		patch.PaymentReference = &ref
	}

	merged, err := s.orderRepo.Merge(ctx, order.ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionConflict) {
			result.Anomaly = domain.AnomalyMergeConflict
			s.metrics.MergeConflicts.Inc()
			s.log.Error().
				Int64("order_id", order.ID).
				Str("incoming_transaction_id", txnID).
				Msg("verified transaction conflicts with recorded one, keeping existing record")
			return nil
		}
		s.log.Error().Err(err).Int64("order_id", order.ID).Msg("merge failed")
		return err
	}

	result.OrderID = &merged.ID
	if err := s.snapshot.Set(ctx, merged, snapshotTTL); err != nil {
		s.log.Warn().Err(err).Int64("order_id", merged.ID).Msg("snapshot refresh failed")
	}
	return nil
}
