package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bankrecon-engine/internal/domain/recon"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Save(ctx context.Context, report *recon.RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) GetByReconciliationID(ctx context.Context, reconciliationID uuid.UUID) (*recon.RunReport, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recon.RunReport), args.Error(1)
}

func (m *MockReportRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*recon.RunReport, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recon.RunReport), args.Error(1)
}

var _ recon.ReportRepository = (*MockReportRepository)(nil)

func testReport(reconciliationID uuid.UUID) *recon.RunReport {
	return &recon.RunReport{
		ReconciliationID: reconciliationID,
		AccountID:        uuid.New(),
		PeriodStart:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:           recon.StatusCompleted,
		Method:           recon.MethodAutomatic,
		MatchedCount:     8,
		TotalCount:       10,
		MatchRate:        0.8,
		MatchesByType:    map[string]int{string(recon.MatchTypeExact): 4},
		GeneratedAt:      time.Now().UTC(),
	}
}

func TestNewReportRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewReportRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &ReportRepository{}, repo)
}

func TestReportRepository_Save(t *testing.T) {
	reconciliationID := uuid.New()
	report := testReport(reconciliationID)

	tests := []struct {
		name          string
		setupMocks    func(m *MockReportRepository)
		expectedError error
	}{
		{
			name: "successful upsert",
			setupMocks: func(m *MockReportRepository) {
				m.On("Save", mock.Anything, report).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "database error",
			setupMocks: func(m *MockReportRepository) {
				m.On("Save", mock.Anything, report).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockReportRepository{}
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			err := mockRepo.Save(ctx, report)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReportRepository_GetByReconciliationID(t *testing.T) {
	reconciliationID := uuid.New()
	report := testReport(reconciliationID)

	tests := []struct {
		name           string
		setupMocks     func(m *MockReportRepository)
		expectedReport *recon.RunReport
		expectedError  error
	}{
		{
			name: "report found",
			setupMocks: func(m *MockReportRepository) {
				m.On("GetByReconciliationID", mock.Anything, reconciliationID).Return(report, nil)
			},
			expectedReport: report,
			expectedError:  nil,
		},
		{
			name: "report not found",
			setupMocks: func(m *MockReportRepository) {
				m.On("GetByReconciliationID", mock.Anything, reconciliationID).
					Return(nil, recon.ErrReportNotFound{ReconciliationID: reconciliationID})
			},
			expectedReport: nil,
			expectedError:  recon.ErrReportNotFound{ReconciliationID: reconciliationID},
		},
		{
			name: "database error",
			setupMocks: func(m *MockReportRepository) {
				m.On("GetByReconciliationID", mock.Anything, reconciliationID).Return(nil, errors.New("db error"))
			},
			expectedReport: nil,
			expectedError:  errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockReportRepository{}
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			result, err := mockRepo.GetByReconciliationID(ctx, reconciliationID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedReport, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
