package complaint_test

import (
	"testing"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []models.GrievanceStatus{
	models.StatusPending,
	models.StatusReopened,
	models.StatusResolved,
	models.StatusFraud,
	models.StatusDeleted,
}

func TestTransition_Graph(t *testing.T) {
	legal := map[[2]models.GrievanceStatus]bool{
		{models.StatusPending, models.StatusResolved}:  true,
		{models.StatusPending, models.StatusFraud}:     true,
		{models.StatusReopened, models.StatusResolved}: true,
		{models.StatusReopened, models.StatusFraud}:    true,
		{models.StatusResolved, models.StatusDeleted}:  true,
		{models.StatusFraud, models.StatusDeleted}:     true,
		{models.StatusDeleted, models.StatusResolved}:  true,
		{models.StatusDeleted, models.StatusFraud}:     true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[[2]models.GrievanceStatus{from, to}]
			assert.Equal(t, want, complaint.CanTransition(from, to), "%s -> %s", from, to)

			err := complaint.Transition(from, to)
			if want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestTransition_NothingLeadsBackToOpen(t *testing.T) {
	for _, from := range allStatuses {
		assert.False(t, complaint.CanTransition(from, models.StatusPending))
		assert.False(t, complaint.CanTransition(from, models.StatusReopened))
	}
}
