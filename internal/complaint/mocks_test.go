package complaint_test

import (
	"context"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockTriager struct {
	mock.Mock
}

func (m *MockTriager) Classify(ctx context.Context, rawText, location string) (*ai.Triage, error) {
	args := m.Called(ctx, rawText, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Triage), args.Error(1)
}

type MockEvidence struct {
	mock.Mock
}

func (m *MockEvidence) ValidateEvidence(ctx context.Context, classification string, image []byte, contentType string) (*ai.VisionScore, error) {
	args := m.Called(ctx, classification, image, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.VisionScore), args.Error(1)
}

// recorder collects every transition it is told about.
type recorder struct {
	events []string
}

func (r *recorder) OnTransition(_ context.Context, ev models.StatusEvent) {
	r.events = append(r.events, string(ev.From)+"->"+string(ev.To))
}
