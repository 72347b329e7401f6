package component

import "github.com/google/uuid"

// Connector is a directed edge drawn between two cards. It lives on its
// own entity so edges survive either endpoint scrolling off screen.
type Connector struct {
	From uuid.UUID
	To   uuid.UUID
}

var ConnectorComponent = NewComponent[Connector]()
