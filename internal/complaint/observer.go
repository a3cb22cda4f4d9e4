package complaint

import (
	"context"

	"civicledger/backend/internal/models"
)

// Observer is told about every committed transition. Observers run after the
// transaction, so a failing observer never undoes a transition.
type Observer interface {
	OnTransition(ctx context.Context, ev models.StatusEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev models.StatusEvent)

func (f ObserverFunc) OnTransition(ctx context.Context, ev models.StatusEvent) { f(ctx, ev) }

// Observers fans an event out to each member in order.
type Observers []Observer

func (o Observers) OnTransition(ctx context.Context, ev models.StatusEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.OnTransition(ctx, ev)
		}
	}
}
