package roaming

import (
	"context"
	"time"

	"wwcp/models"
	"wwcp/status"
	"wwcp/types"
)

// Params carry the request-scoped metadata of one adapter call. Timestamp is
// the moment the physical event happened, not the moment of the call;
// EventTrackingId ties all calls caused by one event together.
type Params struct {
	Timestamp       time.Time
	EventTrackingId string
	RequestTimeout  time.Duration
}

// NewParams stamps the current time and a fresh tracking id.
func NewParams(trackingId string) Params {
	return Params{
		Timestamp:       time.Now().UTC(),
		EventTrackingId: trackingId,
		RequestTimeout:  10 * time.Second,
	}
}

// EvseStatusUpdate is one operational status transition of an EVSE.
type EvseStatusUpdate = status.Update[types.EvseID, types.EvseStatus]

// EvseAdminStatusUpdate is one administrative status transition of an EVSE.
type EvseAdminStatusUpdate = status.Update[types.EvseID, types.AdminStatus]

// EvseEnergyStatusUpdate is one energy status transition of an EVSE.
type EvseEnergyStatusUpdate = status.Update[types.EvseID, types.EnergyStatus]

// StationStatusUpdate is one aggregated status transition of a station.
type StationStatusUpdate = status.Update[types.StationID, types.StationStatus]

// ReceiveStatus accepts operational status updates pushed from a partner or
// pushed to one. The result records one outcome per update; a failed update
// never blocks the rest of the batch.
type ReceiveStatus interface {
	ReceiveEvseStatus(ctx context.Context, updates []EvseStatusUpdate, params Params) (status.Result[EvseStatusUpdate], error)
	ReceiveStationStatus(ctx context.Context, updates []StationStatusUpdate, params Params) (status.Result[StationStatusUpdate], error)
}

// ReceiveAdminStatus accepts administrative status updates.
type ReceiveAdminStatus interface {
	ReceiveEvseAdminStatus(ctx context.Context, updates []EvseAdminStatusUpdate, params Params) (status.Result[EvseAdminStatusUpdate], error)
}

// ReceiveEnergyStatus accepts energy status updates.
type ReceiveEnergyStatus interface {
	ReceiveEvseEnergyStatus(ctx context.Context, updates []EvseEnergyStatusUpdate, params Params) (status.Result[EvseEnergyStatusUpdate], error)
}

// ReceiveData accepts static EVSE and station data pushes. AddOrUpdate is
// the idempotent form partners that cannot diff should use.
type ReceiveData interface {
	AddEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error)
	UpdateEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error)
	DeleteEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error)
	AddOrUpdateEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error)
	AddStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error)
	UpdateStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error)
	DeleteStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error)
	AddOrUpdateStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error)
}

// Adapter is the full partner-facing surface. Partners with a narrower
// capability set embed UnsupportedAdapter and override what they support.
type Adapter interface {
	ReceiveStatus
	ReceiveAdminStatus
	ReceiveEnergyStatus
	ReceiveData
	Name() string
}

// UnsupportedAdapter rejects every operation with a NotSupported fault. The
// batch result is empty, never partially applied.
type UnsupportedAdapter struct{}

func (UnsupportedAdapter) Name() string { return "unsupported" }

func (UnsupportedAdapter) ReceiveEvseStatus(_ context.Context, _ []EvseStatusUpdate, _ Params) (status.Result[EvseStatusUpdate], error) {
	return status.Result[EvseStatusUpdate]{}, status.NotSupportedf("evse status updates are not supported")
}

func (UnsupportedAdapter) ReceiveStationStatus(_ context.Context, _ []StationStatusUpdate, _ Params) (status.Result[StationStatusUpdate], error) {
	return status.Result[StationStatusUpdate]{}, status.NotSupportedf("station status updates are not supported")
}

func (UnsupportedAdapter) ReceiveEvseAdminStatus(_ context.Context, _ []EvseAdminStatusUpdate, _ Params) (status.Result[EvseAdminStatusUpdate], error) {
	return status.Result[EvseAdminStatusUpdate]{}, status.NotSupportedf("evse admin status updates are not supported")
}

func (UnsupportedAdapter) ReceiveEvseEnergyStatus(_ context.Context, _ []EvseEnergyStatusUpdate, _ Params) (status.Result[EvseEnergyStatusUpdate], error) {
	return status.Result[EvseEnergyStatusUpdate]{}, status.NotSupportedf("evse energy status updates are not supported")
}

func (UnsupportedAdapter) AddEvses(_ context.Context, _ []models.Evse, _ Params) (status.Result[models.Evse], error) {
	return status.Result[models.Evse]{}, status.NotSupportedf("evse data push is not supported")
}

func (UnsupportedAdapter) UpdateEvses(_ context.Context, _ []models.Evse, _ Params) (status.Result[models.Evse], error) {
	return status.Result[models.Evse]{}, status.NotSupportedf("evse data push is not supported")
}

func (UnsupportedAdapter) DeleteEvses(_ context.Context, _ []models.Evse, _ Params) (status.Result[models.Evse], error) {
	return status.Result[models.Evse]{}, status.NotSupportedf("evse data push is not supported")
}

func (UnsupportedAdapter) AddOrUpdateEvses(_ context.Context, _ []models.Evse, _ Params) (status.Result[models.Evse], error) {
	return status.Result[models.Evse]{}, status.NotSupportedf("evse data push is not supported")
}

func (UnsupportedAdapter) AddStations(_ context.Context, _ []models.ChargingStation, _ Params) (status.Result[models.ChargingStation], error) {
	return status.Result[models.ChargingStation]{}, status.NotSupportedf("station data push is not supported")
}

func (UnsupportedAdapter) UpdateStations(_ context.Context, _ []models.ChargingStation, _ Params) (status.Result[models.ChargingStation], error) {
	return status.Result[models.ChargingStation]{}, status.NotSupportedf("station data push is not supported")
}

func (UnsupportedAdapter) DeleteStations(_ context.Context, _ []models.ChargingStation, _ Params) (status.Result[models.ChargingStation], error) {
	return status.Result[models.ChargingStation]{}, status.NotSupportedf("station data push is not supported")
}

func (UnsupportedAdapter) AddOrUpdateStations(_ context.Context, _ []models.ChargingStation, _ Params) (status.Result[models.ChargingStation], error) {
	return status.Result[models.ChargingStation]{}, status.NotSupportedf("station data push is not supported")
}
