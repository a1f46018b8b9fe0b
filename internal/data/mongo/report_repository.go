// Package mongo provides the MongoDB implementation of the run report store.
// Reports are denormalized documents; the relational stores stay the source of
// truth for matches and discrepancies.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bankrecon-engine/internal/domain/recon"
)

const (
	// ReportCollectionName is the name of the run report collection in MongoDB
	ReportCollectionName = "run_reports"
)

// ReportRepository implements the recon.ReportRepository interface for MongoDB
type ReportRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewReportRepository creates a new MongoDB run report repository
func NewReportRepository(logger *slog.Logger, db *mongo.Database) recon.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Save upserts the report keyed by reconciliation id. A re-run after
// cancellation overwrites the stale report for the same run id.
func (r *ReportRepository) Save(ctx context.Context, report *recon.RunReport) error {
	collection := r.db.Collection(ReportCollectionName)

	filter := bson.M{"reconciliation_id": report.ReconciliationID}
	update := bson.M{"$set": report}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		r.logger.Error("Failed to save run report",
			"reconciliation_id", report.ReconciliationID.String(),
			"error", err)
		return fmt.Errorf("failed to save run report: %w", err)
	}

	return nil
}

// GetByReconciliationID retrieves a run report by its reconciliation ID.
// Returns ErrReportNotFound if no report exists for the run.
func (r *ReportRepository) GetByReconciliationID(ctx context.Context, reconciliationID uuid.UUID) (*recon.RunReport, error) {
	collection := r.db.Collection(ReportCollectionName)

	filter := bson.M{"reconciliation_id": reconciliationID}
	var report recon.RunReport
	err := collection.FindOne(ctx, filter).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, recon.ErrReportNotFound{ReconciliationID: reconciliationID}
		}
		r.logger.Error("Failed to get run report",
			"reconciliation_id", reconciliationID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	return &report, nil
}

// ListByAccount retrieves paginated run reports for an account.
// Results are sorted by generation time in descending order (newest first).
func (r *ReportRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*recon.RunReport, error) {
	collection := r.db.Collection(ReportCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"generated_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list run reports",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list run reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*recon.RunReport
	if err := cursor.All(ctx, &reports); err != nil {
		r.logger.Error("Failed to decode run reports",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode run reports: %w", err)
	}

	return reports, nil
}
