package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wwcp/internal"
	"wwcp/metrics/counters"
	"wwcp/models"
	"wwcp/network"
	"wwcp/status"
	"wwcp/types"
)

const (
	defaultOperatorId = "DEFAULT"
	defaultPoolId     = "DEFAULT*POOL"
	defaultStationId  = "DEFAULT*STATION"
)

// SystemHandler owns the in-memory network tree and applies gateway
// notifications to it. Registered event listeners are notified synchronously
// in registration order after every accepted change.
type SystemHandler struct {
	network        *network.RoamingNetwork
	database       internal.Database
	logger         internal.LogHandler
	eventListeners []internal.EventHandler
	historySize    int
	debug          bool
	mux            *sync.Mutex
}

func NewSystemHandler(networkId string, historySize int) *SystemHandler {
	if historySize <= 0 {
		historySize = status.DefaultMaxHistorySize
	}
	handler := &SystemHandler{
		network:     network.NewRoamingNetwork(types.NetworkID(networkId), time.Now().UTC()),
		historySize: historySize,
		mux:         &sync.Mutex{},
	}
	return handler
}

func (h *SystemHandler) SetDatabase(database internal.Database) {
	h.database = database
}

// SetDebugMode setting debug mode, used for registering unknown EVSEs
func (h *SystemHandler) SetDebugMode(debug bool) {
	h.debug = debug
}

func (h *SystemHandler) SetLogger(logger internal.LogHandler) {
	h.logger = logger
}

func (h *SystemHandler) AddEventListener(listener internal.EventHandler) {
	h.eventListeners = append(h.eventListeners, listener)
}

func (h *SystemHandler) Network() *network.RoamingNetwork {
	return h.network
}

func (h *SystemHandler) OnStart() error {
	if h.database == nil {
		return nil
	}
	now := time.Now().UTC()

	operators, err := h.database.GetOperators()
	if err != nil {
		return fmt.Errorf("failed to load operators from database: %s", err)
	}
	for _, operator := range operators {
		if _, err = h.network.CreateOperator(types.OperatorID(operator.Id), now); err != nil {
			h.logger.Error("restoring operator "+operator.Id, err)
		}
	}

	pools, err := h.database.GetPools()
	if err != nil {
		return fmt.Errorf("failed to load pools from database: %s", err)
	}
	for _, pool := range pools {
		operator, loadErr := h.ensureOperator(pool.OperatorId, now)
		if loadErr != nil {
			h.logger.Error("restoring pool "+pool.Id, loadErr)
			continue
		}
		if _, loadErr = operator.CreatePool(types.PoolID(pool.Id), now); loadErr != nil {
			h.logger.Error("restoring pool "+pool.Id, loadErr)
		}
	}

	stations, err := h.database.GetStations()
	if err != nil {
		return fmt.Errorf("failed to load stations from database: %s", err)
	}
	for _, station := range stations {
		if _, loadErr := h.ensureStation(station.OperatorId, station.PoolId, station.Id, now); loadErr != nil {
			h.logger.Error("restoring station "+station.Id, loadErr)
		}
	}

	evses, err := h.database.GetEvses()
	if err != nil {
		return fmt.Errorf("failed to load evses from database: %s", err)
	}
	restored := 0
	for _, evse := range evses {
		entity, loadErr := h.restoreEvse(&evse, now)
		if loadErr != nil {
			h.logger.Error("restoring evse "+evse.Id, loadErr)
			continue
		}
		if evse.Status != "" {
			entity.SetStatus(types.GetEvseStatus(evse.Status), now, "", "restored")
		}
		if !evse.IsEnabled {
			entity.SetAdminStatus(types.AdminStatusOutOfService, now, "", "restored")
		} else if evse.AdminStatus != "" {
			entity.SetAdminStatus(types.GetAdminStatus(evse.AdminStatus), now, "", "restored")
		}
		restored++
	}
	h.logger.Debug(fmt.Sprintf("loaded %d operators, %d pools, %d stations, %d evses from database",
		len(operators), len(pools), len(stations), restored))
	return nil
}

func (h *SystemHandler) ensureOperator(id string, at time.Time) (*network.ChargingStationOperator, error) {
	if id == "" {
		id = defaultOperatorId
	}
	if operator, ok := h.network.GetOperator(types.OperatorID(id)); ok {
		return operator, nil
	}
	return h.network.CreateOperator(types.OperatorID(id), at)
}

func (h *SystemHandler) ensurePool(operatorId, id string, at time.Time) (*network.ChargingPool, error) {
	operator, err := h.ensureOperator(operatorId, at)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = defaultPoolId
	}
	if pool, ok := operator.GetPool(types.PoolID(id)); ok {
		return pool, nil
	}
	return operator.CreatePool(types.PoolID(id), at)
}

func (h *SystemHandler) ensureStation(operatorId, poolId, id string, at time.Time) (*network.ChargingStation, error) {
	pool, err := h.ensurePool(operatorId, poolId, at)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = defaultStationId
	}
	if station, ok := pool.GetStation(types.StationID(id)); ok {
		return station, nil
	}
	station, err := pool.CreateStation(types.StationID(id), at)
	if err != nil {
		return nil, err
	}
	station.OnStatusChanged(h.onStationStatusChanged)
	h.notifyDataChange(&internal.EventMessage{
		Type:       "StationRegistered",
		EntityKind: "station",
		EntityId:   id,
		Time:       at,
		Payload: &models.ChargingStation{
			Id:         id,
			PoolId:     pool.ID().String(),
			OperatorId: pool.Operator().ID().String(),
			IsEnabled:  true,
		},
	})
	return station, nil
}

func (h *SystemHandler) restoreEvse(model *models.Evse, at time.Time) (*network.EVSE, error) {
	station, err := h.ensureStation(model.OperatorId, model.PoolId, model.StationId, at)
	if err != nil {
		return nil, err
	}
	if evse, ok := station.GetEvse(types.EvseID(model.Id)); ok {
		return evse, nil
	}
	return station.CreateEvse(types.EvseID(model.Id), at)
}

// addEvse registers an EVSE seen for the first time, in memory and in the
// database.
func (h *SystemHandler) addEvse(evseId, stationId string, at time.Time) (*network.EVSE, error) {
	model := &models.Evse{
		Id:        evseId,
		StationId: stationId,
		IsEnabled: true,
		Status:    string(types.EvseStatusAvailable),
	}
	evse, err := h.restoreEvse(model, at)
	if err != nil {
		return nil, err
	}
	if h.database != nil {
		if err = h.database.AddEvse(model); err != nil {
			h.logger.Error("failed to add evse to database", err)
		}
	}
	h.notifyDataChange(&internal.EventMessage{
		Type:       "EvseRegistered",
		EntityKind: "evse",
		EntityId:   evseId,
		Time:       at,
		Payload:    model,
	})
	return evse, nil
}

// getEvse resolves the target of a notification. Unknown EVSEs are
// registered on the fly in debug mode only.
func (h *SystemHandler) getEvse(evseId, stationId string, at time.Time) (*network.EVSE, error) {
	id, err := types.ParseEvseID(evseId)
	if err != nil {
		return nil, err
	}
	if evse, ok := h.network.FindEvse(id); ok {
		return evse, nil
	}
	h.logger.Warn(fmt.Sprintf("unknown evse: %s", evseId))
	if !h.debug {
		return nil, status.NotFoundf("unknown evse: %s", evseId)
	}
	h.logger.Debug("registering new evse in debug mode")
	return h.addEvse(evseId, stationId, at)
}

func (h *SystemHandler) OnStatusNotification(ws *WebSocket, notification *Notification) (*Response, error) {
	h.logger.FeatureEvent(notification.Action, notification.EvseId, notification.Status)
	err := h.applyStatus(notification.EvseId, ws.ID(), notification.Status, notification.Timestamp, notification.UniqueId, notification.Info)
	if err != nil && !errors.Is(err, status.ErrNoOperation) {
		return NewErrorResponse(notification.UniqueId, err), nil
	}
	return NewResponse(notification.UniqueId), nil
}

func (h *SystemHandler) OnAdminStatusNotification(ws *WebSocket, notification *Notification) (*Response, error) {
	h.logger.FeatureEvent(notification.Action, notification.EvseId, notification.Status)
	err := h.applyAdminStatus(notification.EvseId, ws.ID(), notification.Status, notification.Timestamp, notification.UniqueId, notification.Info)
	if err != nil && !errors.Is(err, status.ErrNoOperation) {
		return NewErrorResponse(notification.UniqueId, err), nil
	}
	return NewResponse(notification.UniqueId), nil
}

func (h *SystemHandler) OnEnergyStatusNotification(ws *WebSocket, notification *Notification) (*Response, error) {
	h.mux.Lock()
	defer h.mux.Unlock()

	evse, err := h.getEvse(notification.EvseId, ws.ID(), notification.Timestamp)
	if err != nil {
		return NewErrorResponse(notification.UniqueId, err), nil
	}
	value := types.GetEnergyStatus(notification.Status)

	update, changed := evse.SetEnergyStatus(value, notification.Timestamp, notification.UniqueId, notification.Info)
	h.logger.FeatureEvent(notification.Action, notification.EvseId, string(value))
	if changed {
		recordStatusUpdate(h, notification.EvseId, "energy", update, notification.UniqueId, notification.Info)
		counters.ObserveStatusChange("energy", string(value))
		h.notifyStatusChange(&internal.EventMessage{
			Type:       notification.Action,
			EntityKind: "evse",
			EntityId:   notification.EvseId,
			Time:       notification.Timestamp,
			TrackingId: notification.UniqueId,
			OldStatus:  oldStatusText(update.Old),
			NewStatus:  string(update.New.Value),
			Info:       notification.Info,
			Payload:    update,
		})
	}
	return NewResponse(notification.UniqueId), nil
}

func (h *SystemHandler) OnSessionFinished(ws *WebSocket, notification *Notification) (*Response, error) {
	record := notification.Session
	if record.EvseId == "" {
		return NewErrorResponse(notification.UniqueId, status.Validationf("session without evse id")), nil
	}
	if h.database != nil {
		if err := h.database.AddChargeDetailRecord(record); err != nil {
			h.logger.Error("failed to store charge detail record", err)
		}
	}
	h.logger.FeatureEvent(notification.Action, record.EvseId, fmt.Sprintf("session %s finished with %d Wh", record.SessionId, record.EnergyWh))
	event := &internal.EventMessage{
		Type:       notification.Action,
		EntityKind: "evse",
		EntityId:   record.EvseId,
		Time:       notification.Timestamp,
		TrackingId: notification.UniqueId,
		Info:       notification.Info,
		Payload:    record,
	}
	for _, listener := range h.eventListeners {
		listener.OnSessionFinished(event)
	}
	return NewResponse(notification.UniqueId), nil
}

func (h *SystemHandler) OnHeartbeat(ws *WebSocket, notification *Notification) (*Response, error) {
	h.logger.FeatureEvent(notification.Action, ws.ID(), "heartbeat received")
	return NewResponse(notification.UniqueId), nil
}

// onStationStatusChanged forwards aggregated station transitions so partners
// that subscribe at station granularity stay current too.
func (h *SystemHandler) onStationStatusChanged(at time.Time, trackingID string, station *network.ChargingStation, old, new status.Entry[types.StationStatus]) {
	update := status.Diff(station.ID(), &old, new)
	counters.ObserveStatusChange("station", string(new.Value))
	h.notifyStatusChange(&internal.EventMessage{
		Type:       "StationStatusChange",
		EntityKind: "station",
		EntityId:   station.ID().String(),
		Time:       at,
		TrackingId: trackingID,
		OldStatus:  string(old.Value),
		NewStatus:  string(new.Value),
		Payload:    update,
	})
}

func (h *SystemHandler) notifyStatusChange(event *internal.EventMessage) {
	for _, listener := range h.eventListeners {
		listener.OnStatusChange(event)
	}
}

func (h *SystemHandler) notifyAdminStatusChange(event *internal.EventMessage) {
	for _, listener := range h.eventListeners {
		listener.OnAdminStatusChange(event)
	}
}

func (h *SystemHandler) notifyDataChange(event *internal.EventMessage) {
	for _, listener := range h.eventListeners {
		listener.OnDataChange(event)
	}
}

// recordStatusUpdate appends the transition to the persistent audit trail.
func recordStatusUpdate[T ~string](h *SystemHandler, entityId, dimension string, update status.Update[types.EvseID, T], trackingId, context string) {
	if h.database == nil {
		return
	}
	record := &models.StatusUpdateRecord{
		EntityId:     entityId,
		Dimension:    dimension,
		NewStatus:    string(update.New.Value),
		NewTimestamp: update.New.Timestamp,
		TrackingId:   trackingId,
		Context:      context,
	}
	if update.Old != nil {
		record.OldStatus = string(update.Old.Value)
		record.OldTimestamp = update.Old.Timestamp
	}
	if err := h.database.WriteStatusUpdate(record); err != nil {
		h.logger.Error("failed to write status update", err)
	}
}

func oldStatusText[T ~string](old *status.Entry[T]) string {
	if old == nil {
		return ""
	}
	return string(old.Value)
}

// StatusItem is one entry of a batch status command received over the API.
type StatusItem struct {
	EvseId    string    `json:"evse_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Info      string    `json:"info,omitempty"`
}

// applyStatus applies one operational transition, shared by the batch API
// and the partner-facing adapter. ErrNoOperation reports an unchanged head.
func (h *SystemHandler) applyStatus(evseId, stationId, statusText string, at time.Time, trackingId, info string) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	h.mux.Lock()
	defer h.mux.Unlock()

	evse, err := h.getEvse(evseId, stationId, at)
	if err != nil {
		return err
	}
	value := types.GetEvseStatus(statusText)
	update, changed := evse.SetStatus(value, at, trackingId, info)
	if !changed {
		return status.ErrNoOperation
	}
	recordStatusUpdate(h, evseId, "operational", update, trackingId, info)
	counters.ObserveStatusChange("operational", string(value))
	h.notifyStatusChange(&internal.EventMessage{
		Type:       ActionStatusNotification,
		EntityKind: "evse",
		EntityId:   evseId,
		Time:       at,
		TrackingId: trackingId,
		OldStatus:  oldStatusText(update.Old),
		NewStatus:  string(update.New.Value),
		Info:       info,
		Payload:    update,
	})
	return nil
}

func (h *SystemHandler) applyAdminStatus(evseId, stationId, statusText string, at time.Time, trackingId, info string) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	h.mux.Lock()
	defer h.mux.Unlock()

	evse, err := h.getEvse(evseId, stationId, at)
	if err != nil {
		return err
	}
	value := types.GetAdminStatus(statusText)
	update, changed := evse.SetAdminStatus(value, at, trackingId, info)
	if !changed {
		return status.ErrNoOperation
	}
	recordStatusUpdate(h, evseId, "admin", update, trackingId, info)
	counters.ObserveStatusChange("admin", string(value))
	h.notifyAdminStatusChange(&internal.EventMessage{
		Type:       ActionAdminStatusNotification,
		EntityKind: "evse",
		EntityId:   evseId,
		Time:       at,
		TrackingId: trackingId,
		OldStatus:  oldStatusText(update.Old),
		NewStatus:  string(update.New.Value),
		Info:       info,
		Payload:    update,
	})
	return nil
}

// ApplyEvseStatuses applies a batch of status commands. Items are applied
// independently: a bad item is recorded in its own outcome and the rest of
// the batch still goes through. An item that leaves the head unchanged
// reports NoOperation.
func (h *SystemHandler) ApplyEvseStatuses(ctx context.Context, items []StatusItem, trackingId string) status.Result[StatusItem] {
	return status.Apply(ctx, items, func(ctx context.Context, item StatusItem) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return h.applyStatus(item.EvseId, "", item.Status, item.Timestamp, trackingId, item.Info)
	})
}

func (h *SystemHandler) EvseStatusReport() status.Report {
	return h.network.EvseStatusReport()
}

func (h *SystemHandler) StationStatusReport() status.Report {
	return h.network.StatusReport()
}

func (h *SystemHandler) EvseAdminStatusReport() status.Report {
	return status.GenerateReport(h.network.EVSEs(), func(e *network.EVSE) string {
		return string(e.AdminStatus().Value)
	})
}

func (h *SystemHandler) EvseStatusHistory(evseId string, skip, take int) ([]status.Entry[types.EvseStatus], error) {
	id, err := types.ParseEvseID(evseId)
	if err != nil {
		return nil, err
	}
	evse, ok := h.network.FindEvse(id)
	if !ok {
		return nil, status.NotFoundf("unknown evse: %s", evseId)
	}
	return evse.StatusHistory(skip, take, h.historySize), nil
}
