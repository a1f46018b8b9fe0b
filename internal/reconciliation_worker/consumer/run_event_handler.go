package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/platform/messaging/producers"
	"github.com/bankrecon-engine/internal/reconciliation_worker/service"
)

// RunEventHandler handles claimed run request messages from Kafka
type RunEventHandler struct {
	runService service.RunService
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

// NewRunEventHandler creates a new handler
func NewRunEventHandler(
	logger *slog.Logger,
	runService service.RunService,
	producer producers.DeadLetterPublisher,
) *RunEventHandler {
	return &RunEventHandler{
		runService: runService,
		producer:   producer,
		logger:     logger,
	}
}

// HandleMessage processes Kafka messages
func (h *RunEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request recon.RunRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal run request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received reconciliation run request",
		"reconciliation_id", request.ReconciliationID.String(),
		"account_id", request.AccountID.String(),
		"method", string(request.Method),
	)

	if err := h.runService.ExecuteRun(ctx, &request); err != nil {
		logger.Error("Failed to execute reconciliation run",
			"reconciliation_id", request.ReconciliationID.String(),
			"account_id", request.AccountID.String(),
			"error", err,
		)
		return fmt.Errorf("executing run %s failed: %w", request.ReconciliationID.String(), err)
	}

	logger.Info("Successfully executed reconciliation run", "reconciliation_id", request.ReconciliationID.String())
	return nil // Success, commit offset
}
