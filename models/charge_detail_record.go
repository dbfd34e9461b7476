package models

import "time"

// ChargeDetailRecord is one finished charging session, kept in the
// append-only record store for later billing and reconciliation.
type ChargeDetailRecord struct {
	SessionId  string    `json:"session_id" bson:"session_id"`
	EvseId     string    `json:"evse_id" bson:"evse_id"`
	ProviderId string    `json:"provider_id" bson:"provider_id"`
	AuthToken  string    `json:"auth_token" bson:"auth_token"`
	TimeStart  time.Time `json:"time_start" bson:"time_start"`
	TimeStop   time.Time `json:"time_stop" bson:"time_stop"`
	EnergyWh   int       `json:"energy_wh" bson:"energy_wh"`
	MeterStart int       `json:"meter_start" bson:"meter_start"`
	MeterStop  int       `json:"meter_stop" bson:"meter_stop"`
	StopReason string    `json:"stop_reason,omitempty" bson:"stop_reason,omitempty"`
}

func (r *ChargeDetailRecord) DataType() string {
	return "chargeDetailRecord"
}

// AlertSubscription is one chat subscribed to severe status alerts.
type AlertSubscription struct {
	UserID   int    `json:"user_id" bson:"user_id"`
	ChatID   int64  `json:"chat_id" bson:"chat_id"`
	Username string `json:"username" bson:"username"`
}
