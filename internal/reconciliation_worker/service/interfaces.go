package service

import (
	"context"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// RunService executes claimed reconciliation runs delivered over the message
// queue
type RunService interface {
	// ExecuteRun drives one run through the matching pipeline and classifier.
	// A nil return acknowledges the message; an error leaves it for redelivery.
	ExecuteRun(ctx context.Context, request *recon.RunRequest) error
}
