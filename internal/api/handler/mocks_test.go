package handler_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/resolution"
)

type MockGrievances struct {
	mock.Mock
}

func (m *MockGrievances) File(ctx context.Context, req complaint.FileRequest) (*models.Grievance, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grievance), args.Error(1)
}

func (m *MockGrievances) Preview(ctx context.Context, rawText, location string) (*ai.Triage, error) {
	args := m.Called(ctx, rawText, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Triage), args.Error(1)
}

func (m *MockGrievances) Delete(ctx context.Context, complaintID, actor string) error {
	return m.Called(ctx, complaintID, actor).Error(0)
}

func (m *MockGrievances) Restore(ctx context.Context, complaintID, actor string) (models.GrievanceStatus, error) {
	args := m.Called(ctx, complaintID, actor)
	return args.Get(0).(models.GrievanceStatus), args.Error(1)
}

func (m *MockGrievances) ListDeleted(ctx context.Context) ([]models.Grievance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Grievance), args.Error(1)
}

func (m *MockGrievances) SaveDraft(ctx context.Context, userID, rawText, location string) (*models.Draft, error) {
	args := m.Called(ctx, userID, rawText, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draft), args.Error(1)
}

func (m *MockGrievances) LoadDraft(ctx context.Context, userID string) (*models.Draft, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draft), args.Error(1)
}

func (m *MockGrievances) DeleteDraft(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) SubmitResolution(ctx context.Context, a resolution.Attempt) (*resolution.Outcome, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolution.Outcome), args.Error(1)
}

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) GetAuditRecord(ctx context.Context, complaintID string) (*audit.Record, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Record), args.Error(1)
}

func (m *MockAuditor) OfficerDashboard(ctx context.Context, officerID string, f audit.DashboardFilter) (*audit.OfficerDashboard, error) {
	args := m.Called(ctx, officerID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.OfficerDashboard), args.Error(1)
}

func (m *MockAuditor) CitizenKPIs(ctx context.Context, userID string) (*audit.CitizenKPIs, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.CitizenKPIs), args.Error(1)
}

func (m *MockAuditor) CitizenGrievances(ctx context.Context, userID, category, status string) ([]audit.GrievanceView, error) {
	args := m.Called(ctx, userID, category, status)
	return args.Get(0).([]audit.GrievanceView), args.Error(1)
}

func (m *MockAuditor) GrievanceDetails(ctx context.Context, complaintID string) (*audit.GrievanceView, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.GrievanceView), args.Error(1)
}
