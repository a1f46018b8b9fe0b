package handler

// CreateAccountRequest represents a request to register a bank account configuration
type CreateAccountRequest struct {
	TenantID     string `json:"tenant_id" binding:"required,uuid"`
	Provider     string `json:"provider" binding:"required"`
	Currency     string `json:"currency" binding:"required,len=3"`
	ImportMethod string `json:"import_method" binding:"required,oneof=API FILE"`
}

// AccountResponse represents an account configuration in API responses
type AccountResponse struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Provider     string `json:"provider"`
	Currency     string `json:"currency"`
	ImportMethod string `json:"import_method"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// StatementLineRequest represents one bank-reported movement in an import
type StatementLineRequest struct {
	TransactionAt  string `json:"transaction_at" binding:"required"`
	DebitMinor     int64  `json:"debit_minor" binding:"min=0"`
	CreditMinor    int64  `json:"credit_minor" binding:"min=0"`
	RunningBalance int64  `json:"running_balance"`
	Reference      string `json:"reference"`
	Description    string `json:"description"`
	BankCategory   string `json:"bank_category"`
	Beneficiary    string `json:"beneficiary"`
	OriginAccount  string `json:"origin_account"`
}

// ImportStatementRequest represents a statement import for one account period
type ImportStatementRequest struct {
	PeriodStart         string                 `json:"period_start" binding:"required"`
	PeriodEnd           string                 `json:"period_end" binding:"required"`
	OpeningBalanceMinor int64                  `json:"opening_balance_minor"`
	ClosingBalanceMinor int64                  `json:"closing_balance_minor"`
	Lines               []StatementLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// StatementResponse represents an imported statement in API responses
type StatementResponse struct {
	ID                  string `json:"id"`
	AccountID           string `json:"account_id"`
	PeriodStart         string `json:"period_start"`
	PeriodEnd           string `json:"period_end"`
	OpeningBalanceMinor int64  `json:"opening_balance_minor"`
	ClosingBalanceMinor int64  `json:"closing_balance_minor"`
	SourceLineCount     int    `json:"source_line_count"`
	ImportedAt          string `json:"imported_at"`
}

// CreateTransactionRequest represents an internally recorded movement
type CreateTransactionRequest struct {
	TransactionAt  string `json:"transaction_at" binding:"required"`
	AmountMinor    int64  `json:"amount_minor" binding:"required"`
	Reference      string `json:"reference"`
	Description    string `json:"description"`
	SourceEntityID string `json:"source_entity_id"`
}

// StartReconciliationRequest represents a request to start a reconciliation run
type StartReconciliationRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	Method      string `json:"method" binding:"required,oneof=AUTOMATIC ASSISTED"`
}

// ReconciliationResponse represents a reconciliation run in API responses
type ReconciliationResponse struct {
	ID               string  `json:"id"`
	AccountID        string  `json:"account_id"`
	PeriodStart      string  `json:"period_start"`
	PeriodEnd        string  `json:"period_end"`
	Status           string  `json:"status"`
	Method           string  `json:"method"`
	MatchedCount     int     `json:"matched_count"`
	DiscrepancyCount int     `json:"discrepancy_count"`
	TotalCount       int     `json:"total_count"`
	MatchRate        float64 `json:"match_rate"`
	CancelRequested  bool    `json:"cancel_requested"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	StartedAt        string  `json:"started_at"`
	CompletedAt      string  `json:"completed_at,omitempty"`
}

// ResolutionRequest represents a reviewer's verdict on one discrepancy
type ResolutionRequest struct {
	DiscrepancyID string `json:"discrepancy_id" binding:"required,uuid"`
	Status        string `json:"status" binding:"required,oneof=RESOLVED REQUIRES_ADJUSTMENT IGNORED"`
	Notes         string `json:"notes"`
}

// ApproveReconciliationRequest represents a request to approve a run
type ApproveReconciliationRequest struct {
	Actor       string              `json:"actor" binding:"required"`
	Resolutions []ResolutionRequest `json:"resolutions" binding:"dive"`
}

// CancelReconciliationRequest represents a request to cancel a run
type CancelReconciliationRequest struct {
	Reason string `json:"reason"`
}

// ManualMatchRequest represents a human-asserted match
type ManualMatchRequest struct {
	BankLineIDs    []string `json:"bank_line_ids" binding:"required,min=1,dive,uuid"`
	InternalTxnIDs []string `json:"internal_txn_ids" binding:"required,min=1,dive,uuid"`
	Actor          string   `json:"actor" binding:"required"`
}

// MatchResponse represents a committed match in API responses
type MatchResponse struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	BankLineIDs    []string `json:"bank_line_ids"`
	InternalTxnIDs []string `json:"internal_txn_ids"`
	Confidence     float64  `json:"confidence"`
	AmountMinor    int64    `json:"amount_minor"`
	CreatedBy      string   `json:"created_by"`
	Actor          string   `json:"actor,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

// DiscrepancyResponse represents a discrepancy in API responses
type DiscrepancyResponse struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Status          string   `json:"status"`
	BankLineIDs     []string `json:"bank_line_ids,omitempty"`
	InternalTxnIDs  []string `json:"internal_txn_ids,omitempty"`
	AmountMinor     int64    `json:"amount_minor"`
	Description     string   `json:"description"`
	ResolutionNotes string   `json:"resolution_notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
	ResolvedAt      string   `json:"resolved_at,omitempty"`
}

// SuggestionResponse represents a scored suggestion in API responses
type SuggestionResponse struct {
	ID            string  `json:"id"`
	BankLineID    string  `json:"bank_line_id"`
	InternalTxnID string  `json:"internal_txn_id"`
	Score         float64 `json:"score"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}
