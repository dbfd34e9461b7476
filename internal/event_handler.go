package internal

import "time"

// EventHandler receives domain events from the system handler. Handlers run
// synchronously in registration order; anything slow forwards to its own
// goroutine.
type EventHandler interface {
	OnStatusChange(event *EventMessage)
	OnAdminStatusChange(event *EventMessage)
	OnDataChange(event *EventMessage)
	OnSessionFinished(event *EventMessage)
}

// EventMessage carries one status transition plus the tracking id of the
// physical event, so one cause is traceable across log lines and partner
// calls.
type EventMessage struct {
	Type       string      `json:"type" bson:"type"`
	EntityKind string      `json:"entity_kind" bson:"entity_kind"`
	EntityId   string      `json:"entity_id" bson:"entity_id"`
	Time       time.Time   `json:"time" bson:"time"`
	TrackingId string      `json:"tracking_id" bson:"tracking_id"`
	OldStatus  string      `json:"old_status" bson:"old_status"`
	NewStatus  string      `json:"new_status" bson:"new_status"`
	Info       string      `json:"info" bson:"info"`
	Payload    interface{} `json:"payload,omitempty" bson:"payload,omitempty"`
}
