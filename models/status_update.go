package models

import "time"

// StatusUpdateRecord is the persisted form of one status transition, the
// audit trail of what was sent to roaming partners.
type StatusUpdateRecord struct {
	EntityId     string    `json:"entity_id" bson:"entity_id"`
	Dimension    string    `json:"dimension" bson:"dimension"`
	OldStatus    string    `json:"old_status,omitempty" bson:"old_status,omitempty"`
	OldTimestamp time.Time `json:"old_timestamp,omitempty" bson:"old_timestamp,omitempty"`
	NewStatus    string    `json:"new_status" bson:"new_status"`
	NewTimestamp time.Time `json:"new_timestamp" bson:"new_timestamp"`
	TrackingId   string    `json:"tracking_id" bson:"tracking_id"`
	Context      string    `json:"context,omitempty" bson:"context,omitempty"`
}

func (r *StatusUpdateRecord) DataType() string {
	return "statusUpdate"
}
