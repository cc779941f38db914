package domain

import "fmt"

// ResponseCodeSuccess is the gateway code signalling a successful payment.
// It is the only code not classified as a failure.
const ResponseCodeSuccess = "00"

// FailureCategory is a stable, user-facing classification of a gateway
// failure code. Categories never change even if the gateway renumbers codes.
type FailureCategory string

const (
	CategoryDuplicate           FailureCategory = "DUPLICATE"
	CategoryInvalidMerchant     FailureCategory = "INVALID_MERCHANT"
	CategoryMalformedRequest    FailureCategory = "MALFORMED_REQUEST"
	CategoryMerchantSuspended   FailureCategory = "MERCHANT_SUSPENDED"
	CategoryAuthFailed          FailureCategory = "AUTH_FAILED"
	CategorySuspectedFraud      FailureCategory = "SUSPECTED_FRAUD"
	CategoryBankMaintenance     FailureCategory = "BANK_MAINTENANCE"
	CategoryNotEnrolled         FailureCategory = "NOT_ENROLLED"
	CategoryAuthLimitExceeded   FailureCategory = "AUTH_LIMIT_EXCEEDED"
	CategorySessionExpired      FailureCategory = "SESSION_EXPIRED"
	CategoryAccountLocked       FailureCategory = "ACCOUNT_LOCKED"
	CategoryUserCancelled       FailureCategory = "USER_CANCELLED"
	CategoryInsufficientFunds   FailureCategory = "INSUFFICIENT_FUNDS"
	CategoryDailyLimitExceeded  FailureCategory = "DAILY_LIMIT_EXCEEDED"
	CategoryTransactionNotFound FailureCategory = "TRANSACTION_NOT_FOUND"
	CategoryOTPFailure          FailureCategory = "OTP_FAILURE"
	CategorySystemError         FailureCategory = "SYSTEM_ERROR"
	CategorySignatureInvalid    FailureCategory = "SIGNATURE_INVALID"
	CategoryTimeout             FailureCategory = "TIMEOUT"
	CategoryUnknown             FailureCategory = "UNKNOWN"
)

type classification struct {
	category FailureCategory
	message  string
}

// responseCodeTable maps known gateway failure codes. The success literal is
// deliberately absent; it is handled before classification.
var responseCodeTable = map[string]classification{
	"01": {CategoryTransactionNotFound, "Transaction not found at the gateway"},
	"02": {CategoryInvalidMerchant, "Merchant is not recognized by the gateway"},
	"03": {CategoryMalformedRequest, "Request data sent to the gateway was malformed"},
	"04": {CategoryMerchantSuspended, "Merchant account is suspended at the gateway"},
	"07": {CategorySuspectedFraud, "Transaction flagged as suspected fraud"},
	"09": {CategoryNotEnrolled, "Card or account is not enrolled for online payment"},
	"10": {CategoryAuthFailed, "Card or account authentication failed"},
	"11": {CategorySessionExpired, "Payment session expired before completion"},
	"12": {CategoryAccountLocked, "Card or account is locked"},
	"13": {CategoryOTPFailure, "Wrong one-time password entered"},
	"24": {CategoryUserCancelled, "Payer cancelled the transaction"},
	"51": {CategoryInsufficientFunds, "Insufficient funds in the payer account"},
	"65": {CategoryDailyLimitExceeded, "Payer exceeded the daily transaction limit"},
	"75": {CategoryBankMaintenance, "Issuing bank is under maintenance"},
	"79": {CategoryAuthLimitExceeded, "Too many failed payment authorization attempts"},
	"94": {CategoryDuplicate, "Duplicate request received by the gateway"},
	"97": {CategorySignatureInvalid, "Gateway reported an invalid request signature"},
	"98": {CategoryTimeout, "Gateway timed out waiting for the bank"},
	"99": {CategorySystemError, "Gateway internal system error"},
}

// Classify maps a gateway response code to a stable failure category and a
// human-readable message. The mapping is total: absent or unrecognized codes
// yield CategoryUnknown with the raw code embedded for diagnostics.
func Classify(code string) (FailureCategory, string) {
	if c, ok := responseCodeTable[code]; ok {
		return c.category, c.message
	}
	return CategoryUnknown, fmt.Sprintf("Unrecognized gateway response code %q", code)
}
