package models

// ChargingStation is the persisted representation of a station.
type ChargingStation struct {
	Id          string `json:"station_id" bson:"station_id"`
	PoolId      string `json:"pool_id" bson:"pool_id"`
	OperatorId  string `json:"operator_id" bson:"operator_id"`
	IsEnabled   bool   `json:"is_enabled" bson:"is_enabled"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Status      string `json:"status" bson:"status"`
	AdminStatus string `json:"admin_status" bson:"admin_status"`
}

// ChargingPool is the persisted representation of a pool (one site).
type ChargingPool struct {
	Id         string `json:"pool_id" bson:"pool_id"`
	OperatorId string `json:"operator_id" bson:"operator_id"`
	Title      string `json:"title" bson:"title"`
	Address    string `json:"address" bson:"address"`
	Status     string `json:"status" bson:"status"`
}

// Operator is the persisted representation of a charging station operator.
type Operator struct {
	Id     string `json:"operator_id" bson:"operator_id"`
	Title  string `json:"title" bson:"title"`
	Status string `json:"status" bson:"status"`
}
