package feed

import "civicledger/backend/internal/models"

// Client is one live subscriber. The hub only needs to know which officer it
// belongs to and where to push events.
type Client interface {
	// OfficerID is the officer whose grievances this client follows.
	// An empty id follows every grievance.
	OfficerID() string
	// SendChannel is written to by the hub only.
	SendChannel() chan<- models.StatusEvent
	// Run starts the client's pumps.
	Run()
	// Close stops the client. The hub calls it once, after unregistering.
	Close()
}
