package server

import (
	"encoding/json"
	"time"

	"wwcp/models"
	"wwcp/status"
)

const (
	ActionStatusNotification       = "StatusNotification"
	ActionAdminStatusNotification  = "AdminStatusNotification"
	ActionEnergyStatusNotification = "EnergyStatusNotification"
	ActionSessionFinished          = "SessionFinished"
	ActionHeartbeat                = "Heartbeat"
)

// Notification is one frame from a field gateway. Timestamp is when the
// state change happened on the hardware, which may be well before the frame
// arrives if the gateway was buffering offline.
type Notification struct {
	UniqueId  string                     `json:"unique_id"`
	Action    string                     `json:"action"`
	EvseId    string                     `json:"evse_id,omitempty"`
	Status    string                     `json:"status,omitempty"`
	Timestamp time.Time                  `json:"timestamp,omitempty"`
	Info      string                     `json:"info,omitempty"`
	Session   *models.ChargeDetailRecord `json:"session,omitempty"`
}

// Response is the acknowledgement frame sent back for every notification.
type Response struct {
	UniqueId string `json:"unique_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

const (
	ResponseAccepted = "Accepted"
	ResponseRejected = "Rejected"
)

func NewResponse(uniqueId string) *Response {
	return &Response{UniqueId: uniqueId, Status: ResponseAccepted}
}

func NewErrorResponse(uniqueId string, err error) *Response {
	return &Response{UniqueId: uniqueId, Status: ResponseRejected, Error: err.Error()}
}

// ParseNotification decodes and validates one incoming frame.
func ParseNotification(data []byte) (*Notification, error) {
	var notification Notification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, status.Validationf("malformed frame: %v", err)
	}
	if notification.UniqueId == "" {
		return nil, status.Validationf("frame without unique id")
	}
	switch notification.Action {
	case ActionStatusNotification, ActionAdminStatusNotification, ActionEnergyStatusNotification:
		if notification.EvseId == "" {
			return nil, status.Validationf("%s without evse id", notification.Action)
		}
		if notification.Status == "" {
			return nil, status.Validationf("%s without status", notification.Action)
		}
	case ActionSessionFinished:
		if notification.Session == nil {
			return nil, status.Validationf("%s without session data", notification.Action)
		}
	case ActionHeartbeat:
	case "":
		return nil, status.Validationf("frame without action")
	default:
		return nil, status.NotSupportedf("action not supported: %s", notification.Action)
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}
	return &notification, nil
}
