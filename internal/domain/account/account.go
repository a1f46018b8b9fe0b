package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyProvider         = errors.New("provider identifier cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrInvalidImportMethod   = errors.New("invalid import method")
)

// ImportMethod describes how statements reach the system for an account
type ImportMethod string

const (
	ImportMethodAPI  ImportMethod = "API"
	ImportMethodFile ImportMethod = "FILE"
)

// BankAccountConfig is the tenant-scoped configuration for one reconciled bank account
type BankAccountConfig struct {
	ID           uuid.UUID    `json:"id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	Provider     string       `json:"provider"`
	Currency     string       `json:"currency"`
	ImportMethod ImportMethod `json:"import_method"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewBankAccountConfig creates a new account configuration with the given parameters
func NewBankAccountConfig(tenantID uuid.UUID, provider, currency string, method ImportMethod) (*BankAccountConfig, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if method != ImportMethodAPI && method != ImportMethodFile {
		return nil, ErrInvalidImportMethod
	}

	return &BankAccountConfig{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Provider:     provider,
		Currency:     currency,
		ImportMethod: method,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// Deactivate marks the account as inactive; new reconciliation runs are rejected
// for inactive accounts.
func (a *BankAccountConfig) Deactivate() {
	a.Active = false
	a.UpdatedAt = time.Now()
}
