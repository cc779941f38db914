package dto

// CallbackRequest binds the query parameters of the gateway's return
// redirect. Everything arrives as a string; absent parameters bind to "".
type CallbackRequest struct {
	ResponseCode  string `form:"responseCode" binding:"required"`
	TransactionID string `form:"transactionId"`
	Reference     string `form:"reference"`
	Amount        string `form:"amount"`
	OrderInfo     string `form:"orderInfo"`
	BankCode      string `form:"bankCode"`
	CardType      string `form:"cardType"`
	PayDate       string `form:"payDate"`
}

// PlaceOrderRequest is the request body for order placement.
type PlaceOrderRequest struct {
	CustomerName  string `json:"customer_name" binding:"required,min=1,max=100"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	AmountMinor   int64  `json:"amount_minor" binding:"required,gt=0"`
}

// OrderResponse is the response body for order reads and placement.
type OrderResponse struct {
	ID               int64   `json:"id"`
	CustomerName     string  `json:"customer_name"`
	CustomerEmail    string  `json:"customer_email,omitempty"`
	AmountMinor      int64   `json:"amount_minor"`
	Status           string  `json:"status"`
	PaymentDate      *string `json:"payment_date,omitempty"`
	TransactionID    *string `json:"transaction_id,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ReconciliationResponse is the response body for a processed callback.
type ReconciliationResponse struct {
	AttemptID         string  `json:"attempt_id"`
	Outcome           string  `json:"outcome"`
	OrderID           *int64  `json:"order_id,omitempty"`
	TransactionID     string  `json:"transaction_id,omitempty"`
	MerchantReference string  `json:"merchant_reference,omitempty"`
	Amount            float64 `json:"amount"`
	PaymentDate       *string `json:"payment_date,omitempty"`
	BankCode          string  `json:"bank_code,omitempty"`
	CardType          string  `json:"card_type,omitempty"`
	OrderInfo         string  `json:"order_info,omitempty"`
	ErrorCategory     string  `json:"error_category,omitempty"`
	ErrorMessage      string  `json:"error_message,omitempty"`
	Anomaly           string  `json:"anomaly,omitempty"`
}
