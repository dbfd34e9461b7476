package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// EVSE is a single charging outlet, the leaf of the containment tree. It
// tracks three status dimensions: operational, administrative and energy.
type EVSE struct {
	id      types.EvseID
	station *ChargingStation

	operational *statusFacet[types.EvseStatus]
	admin       *statusFacet[types.AdminStatus]
	energy      *statusFacet[types.EnergyStatus]
}

func newEVSE(id types.EvseID, station *ChargingStation, at time.Time) *EVSE {
	return &EVSE{
		id:          id,
		station:     station,
		operational: newStatusFacet(types.EvseStatusAvailable, at, status.DefaultMaxHistorySize),
		admin:       newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
		energy:      newStatusFacet(types.EnergyStatusAvailable, at, status.DefaultMaxHistorySize),
	}
}

func (e *EVSE) ID() types.EvseID          { return e.id }
func (e *EVSE) Station() *ChargingStation { return e.station }

func (e *EVSE) Status() status.Entry[types.EvseStatus]       { return e.operational.current() }
func (e *EVSE) AdminStatus() status.Entry[types.AdminStatus] { return e.admin.current() }
func (e *EVSE) EnergyStatus() status.Entry[types.EnergyStatus] {
	return e.energy.current()
}

func (e *EVSE) StatusHistory(skip, take, historySize int) []status.Entry[types.EvseStatus] {
	return e.operational.history(skip, take, historySize)
}

func (e *EVSE) AdminStatusHistory(skip, take, historySize int) []status.Entry[types.AdminStatus] {
	return e.admin.history(skip, take, historySize)
}

// SetStatus records a new operational status. When the head changed it
// returns the update diff describing the transition; subscribers, including
// the owning station's re-aggregation, have already run when it returns.
func (e *EVSE) SetStatus(value types.EvseStatus, at time.Time, trackingID, context string) (status.Update[types.EvseID, types.EvseStatus], bool) {
	old, head, changed := e.operational.set(value, at, trackingID, context)
	if !changed {
		return status.Update[types.EvseID, types.EvseStatus]{}, false
	}
	update := status.Diff(e.id, &old, head)
	update.Context = context
	return update, true
}

func (e *EVSE) SetAdminStatus(value types.AdminStatus, at time.Time, trackingID, context string) (status.Update[types.EvseID, types.AdminStatus], bool) {
	old, head, changed := e.admin.set(value, at, trackingID, context)
	if !changed {
		return status.Update[types.EvseID, types.AdminStatus]{}, false
	}
	update := status.Diff(e.id, &old, head)
	update.Context = context
	return update, true
}

func (e *EVSE) SetEnergyStatus(value types.EnergyStatus, at time.Time, trackingID, context string) (status.Update[types.EvseID, types.EnergyStatus], bool) {
	old, head, changed := e.energy.set(value, at, trackingID, context)
	if !changed {
		return status.Update[types.EvseID, types.EnergyStatus]{}, false
	}
	update := status.Diff(e.id, &old, head)
	update.Context = context
	return update, true
}

// ReplaceStatusHistory reloads the operational history from an external
// snapshot, ModeAdd to merge or ModeReplace to start over.
func (e *EVSE) ReplaceStatusHistory(entries []status.Entry[types.EvseStatus], mode status.InsertMode) error {
	return e.operational.schedule.InsertMany(entries, mode)
}

// OnStatusChanged registers a listener for operational head changes.
// Listeners run synchronously in registration order.
func (e *EVSE) OnStatusChanged(listener func(at time.Time, trackingID string, evse *EVSE, old, new status.Entry[types.EvseStatus])) {
	if listener == nil {
		return
	}
	e.operational.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.EvseStatus]) {
		listener(at, trackingID, e, old, new)
	})
}

// OnAdminStatusChanged registers a listener for admin head changes.
func (e *EVSE) OnAdminStatusChanged(listener func(at time.Time, trackingID string, evse *EVSE, old, new status.Entry[types.AdminStatus])) {
	if listener == nil {
		return
	}
	e.admin.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.AdminStatus]) {
		listener(at, trackingID, e, old, new)
	})
}

// OnEnergyStatusChanged registers a listener for energy head changes.
func (e *EVSE) OnEnergyStatusChanged(listener func(at time.Time, trackingID string, evse *EVSE, old, new status.Entry[types.EnergyStatus])) {
	if listener == nil {
		return
	}
	e.energy.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.EnergyStatus]) {
		listener(at, trackingID, e, old, new)
	})
}
