package complaint

import (
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/models"
)

// transitions is the complete lifecycle graph. Anything not listed is illegal.
var transitions = map[models.GrievanceStatus][]models.GrievanceStatus{
	models.StatusPending:  {models.StatusResolved, models.StatusFraud},
	models.StatusReopened: {models.StatusResolved, models.StatusFraud},
	models.StatusResolved: {models.StatusDeleted},
	models.StatusFraud:    {models.StatusDeleted},
	models.StatusDeleted:  {models.StatusResolved, models.StatusFraud},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to models.GrievanceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns apperr.ErrInvalidTransition for an illegal edge.
func Transition(from, to models.GrievanceStatus) error {
	if !CanTransition(from, to) {
		return apperr.Newf(apperr.ErrInvalidTransition, "%s -> %s", from, to)
	}
	return nil
}
