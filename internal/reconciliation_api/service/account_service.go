package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// CreateAccount registers a bank account configuration for a tenant
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, tenantID uuid.UUID, provider, currency string, method account.ImportMethod) (*account.BankAccountConfig, error) {
	cfg, err := account.NewBankAccountConfig(tenantID, provider, currency, method)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, cfg); err != nil {
		s.logger.Error("Failed to create account config",
			"tenant_id", tenantID.String(),
			"provider", provider,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Account config created",
		"account_id", cfg.ID.String(),
		"tenant_id", tenantID.String(),
		"provider", provider,
	)
	return cfg, nil
}

// GetAccountByID retrieves an account configuration by its ID
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// DeactivateAccount marks the configuration inactive
func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id uuid.UUID) (*account.BankAccountConfig, error) {
	cfg, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg.Deactivate()
	if err := s.accountRepo.Update(ctx, cfg); err != nil {
		s.logger.Error("Failed to deactivate account config", "account_id", id.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Account config deactivated", "account_id", id.String())
	return cfg, nil
}
