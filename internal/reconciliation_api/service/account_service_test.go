package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bankrecon-engine/internal/domain/account"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(newTestLogger(), accountRepo)

		accountRepo.On("Create", ctx, mock.AnythingOfType("*account.BankAccountConfig")).Return(nil)

		cfg, err := svc.CreateAccount(ctx, tenantID, "acme-bank", "EUR", account.ImportMethodAPI)

		require.NoError(t, err)
		assert.Equal(t, tenantID, cfg.TenantID)
		assert.Equal(t, "acme-bank", cfg.Provider)
		assert.True(t, cfg.Active)
		accountRepo.AssertExpectations(t)
	})

	t.Run("InvalidCurrencyRejected", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(newTestLogger(), accountRepo)

		cfg, err := svc.CreateAccount(ctx, tenantID, "acme-bank", "EURO", account.ImportMethodAPI)

		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, account.ErrInvalidCurrencyFormat)
		accountRepo.AssertNotCalled(t, "Create")
	})

	t.Run("DuplicateProvider", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(newTestLogger(), accountRepo)

		accountRepo.On("Create", ctx, mock.AnythingOfType("*account.BankAccountConfig")).
			Return(account.ErrDuplicateProvider{Provider: "acme-bank"})

		cfg, err := svc.CreateAccount(ctx, tenantID, "acme-bank", "EUR", account.ImportMethodAPI)

		assert.Nil(t, cfg)
		var dup account.ErrDuplicateProvider
		require.ErrorAs(t, err, &dup)
		accountRepo.AssertExpectations(t)
	})
}

func TestAccountService_DeactivateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(newTestLogger(), accountRepo)

		cfg, err := account.NewBankAccountConfig(uuid.New(), "acme-bank", "EUR", account.ImportMethodFile)
		require.NoError(t, err)

		accountRepo.On("GetByID", ctx, cfg.ID).Return(cfg, nil)
		accountRepo.On("Update", ctx, cfg).Return(nil)

		got, err := svc.DeactivateAccount(ctx, cfg.ID)

		require.NoError(t, err)
		assert.False(t, got.Active)
		accountRepo.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(newTestLogger(), accountRepo)

		id := uuid.New()
		accountRepo.On("GetByID", ctx, id).Return(nil, account.ErrAccountNotFound{AccountID: id})

		got, err := svc.DeactivateAccount(ctx, id)

		assert.Nil(t, got)
		assert.True(t, errors.Is(err, account.ErrAccountNotFound{}))
		accountRepo.AssertNotCalled(t, "Update")
	})
}
