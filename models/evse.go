package models

// Evse is the persisted and wire representation of an EVSE.
type Evse struct {
	Id          string  `json:"evse_id" bson:"evse_id"`
	StationId   string  `json:"station_id" bson:"station_id"`
	PoolId      string  `json:"pool_id" bson:"pool_id"`
	OperatorId  string  `json:"operator_id" bson:"operator_id"`
	IsEnabled   bool    `json:"is_enabled" bson:"is_enabled"`
	Status      string  `json:"status" bson:"status"`
	AdminStatus string  `json:"admin_status" bson:"admin_status"`
	MaxPowerKW  float64 `json:"max_power_kw,omitempty" bson:"max_power_kw,omitempty"`
}
