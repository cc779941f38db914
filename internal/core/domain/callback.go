package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// minorUnitFactor converts gateway amounts (smallest currency unit) to major units.
const minorUnitFactor = 100

// CallbackParams holds the query parameters the gateway appends when it
// redirects the payer back to us. Every field is an untrusted string and may
// be absent (empty). Absence must never crash downstream logic.
type CallbackParams struct {
	ResponseCode         string
	GatewayTransactionID string
	MerchantReference    string
	AmountMinorUnits     string
	OrderInfo            string
	BankCode             string
	CardType             string
	PayDateRaw           string // Fixed-width YYYYMMDDhhmmss
}

// ReconcileOutcome is the top-level verdict of one callback reconciliation.
type ReconcileOutcome string

const (
	OutcomeSuccess ReconcileOutcome = "SUCCESS"
	OutcomeFailure ReconcileOutcome = "FAILURE"
)

// Anomaly flags a non-fatal reconciliation problem. An anomaly never
// downgrades a gateway-reported success; it is surfaced for the caller
// (retry later) or an operator (inspect a conflict).
type Anomaly string

const (
	AnomalyNone             Anomaly = ""
	AnomalyVerificationMiss Anomaly = "VERIFICATION_MISS"
	AnomalyMergeConflict    Anomaly = "MERGE_CONFLICT"
)

// ReconciliationResult is computed fresh per callback invocation. It is never
// persisted itself; only its effects are merged into the order record.
type ReconciliationResult struct {
	AttemptID         uuid.UUID        `json:"attempt_id"`
	Outcome           ReconcileOutcome `json:"outcome"`
	OrderID           *int64           `json:"order_id,omitempty"` // Absent when the reference is undecodable
	TransactionID     string           `json:"transaction_id,omitempty"`
	MerchantReference string           `json:"merchant_reference,omitempty"`
	Amount            float64          `json:"amount"` // Major currency units
	PaymentDate       *time.Time       `json:"payment_date,omitempty"`
	BankCode          string           `json:"bank_code,omitempty"`
	CardType          string           `json:"card_type,omitempty"`
	OrderInfo         string           `json:"order_info,omitempty"`
	ErrorCategory     FailureCategory  `json:"error_category,omitempty"` // Present only on FAILURE
	ErrorMessage      string           `json:"error_message,omitempty"`
	Anomaly           Anomaly          `json:"anomaly,omitempty"`
}

// NormalizeAmount converts the gateway's minor-unit amount string to major
// units. Absent or malformed input yields (0, false).
func NormalizeAmount(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	minor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(minor) / minorUnitFactor, true
}
