package recon

import (
	"time"

	"github.com/google/uuid"

	"github.com/bankrecon-engine/internal/domain/shared"
)

// RunRequest defines a Kafka message asking the worker to execute a claimed run
type RunRequest struct {
	ReconciliationID uuid.UUID     `json:"reconciliation_id"`
	AccountID        uuid.UUID     `json:"account_id"`
	Period           shared.Period `json:"period"`
	Method           Method        `json:"method"`
	CorrelationID    string        `json:"correlation_id"`
	Timestamp        time.Time     `json:"timestamp"`
}
