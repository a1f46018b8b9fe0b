package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/account"
	"github.com/bankrecon-engine/internal/reconciliation_api/service"
)

// AccountHandler handles HTTP requests for account configuration operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create registers a bank account configuration for a tenant
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		RespondBadRequest(c, "Invalid tenant ID")
		return
	}

	cfg, err := h.accountService.CreateAccount(c.Request.Context(), tenantID, req.Provider, req.Currency, account.ImportMethod(req.ImportMethod))
	if err != nil {
		var dup account.ErrDuplicateProvider
		if errors.As(err, &dup) {
			RespondConflict(c, err.Error())
			return
		}
		if errors.Is(err, account.ErrEmptyProvider) || errors.Is(err, account.ErrInvalidCurrencyFormat) || errors.Is(err, account.ErrInvalidImportMethod) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create account config", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(cfg))
}

// GetByID retrieves an account configuration, returns 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	cfg, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account config", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(cfg))
}

// Deactivate marks the configuration inactive; new runs are rejected for it
func (h *AccountHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	cfg, err := h.accountService.DeactivateAccount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to deactivate account config", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(cfg))
}

// mapAccountToResponse maps an account configuration to a response DTO
func mapAccountToResponse(cfg *account.BankAccountConfig) AccountResponse {
	return AccountResponse{
		ID:           cfg.ID.String(),
		TenantID:     cfg.TenantID.String(),
		Provider:     cfg.Provider,
		Currency:     cfg.Currency,
		ImportMethod: string(cfg.ImportMethod),
		Active:       cfg.Active,
		CreatedAt:    cfg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    cfg.UpdatedAt.Format(time.RFC3339),
	}
}
