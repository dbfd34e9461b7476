package internal

import "wwcp/models"

// Database is the persistence contract. The status core works without one;
// everything here is best effort around the in-memory tree.
type Database interface {
	Write(table string, data Data) error
	WriteLogMessage(data Data) error
	ReadLog() (interface{}, error)

	GetOperators() ([]models.Operator, error)
	GetPools() ([]models.ChargingPool, error)
	GetStations() ([]models.ChargingStation, error)
	GetEvses() ([]models.Evse, error)
	AddEvse(evse *models.Evse) error
	UpdateEvse(evse *models.Evse) error

	WriteStatusUpdate(record *models.StatusUpdateRecord) error
	ReadStatusUpdates(entityId string, limit int64) ([]models.StatusUpdateRecord, error)

	AddChargeDetailRecord(record *models.ChargeDetailRecord) error
	GetChargeDetailRecords() ([]models.ChargeDetailRecord, error)

	GetSubscriptions() ([]models.AlertSubscription, error)
	AddSubscription(subscription *models.AlertSubscription) error
	DeleteSubscription(subscription *models.AlertSubscription) error
}

type Data interface {
	DataType() string
}
