package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// ChargingStationOperator owns the pools of one infrastructure operator.
type ChargingStationOperator struct {
	id      types.OperatorID
	network *RoamingNetwork

	pools *childSet[*ChargingPool]

	operational *statusFacet[types.StationStatus]
	admin       *statusFacet[types.AdminStatus]

	aggregate      StationAggregation
	aggregateAdmin AdminAggregation
}

func newOperator(id types.OperatorID, network *RoamingNetwork, at time.Time) *ChargingStationOperator {
	return &ChargingStationOperator{
		id:             id,
		network:        network,
		pools:          newChildSet[*ChargingPool](),
		operational:    newStatusFacet(types.StationStatusUnknown, at, status.DefaultMaxHistorySize),
		admin:          newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
		aggregate:      MostSevereStation,
		aggregateAdmin: MostSevereAdmin,
	}
}

func (o *ChargingStationOperator) ID() types.OperatorID     { return o.id }
func (o *ChargingStationOperator) Network() *RoamingNetwork { return o.network }

func (o *ChargingStationOperator) SetAggregation(policy StationAggregation) {
	if policy != nil {
		o.aggregate = policy
	}
}

func (o *ChargingStationOperator) CreatePool(id types.PoolID, at time.Time) (*ChargingPool, error) {
	if id == "" {
		return nil, status.Validationf("pool id must not be empty")
	}
	pool := newChargingPool(id, o, at)
	if err := o.pools.add(id.String(), pool); err != nil {
		return nil, err
	}
	pool.OnStatusChanged(func(at time.Time, trackingID string, _ *ChargingPool, _, _ status.Entry[types.StationStatus]) {
		o.reaggregate(at, trackingID)
	})
	pool.admin.subscribe(func(at time.Time, trackingID string, _, _ status.Entry[types.AdminStatus]) {
		o.reaggregateAdmin(at, trackingID)
	})
	o.reaggregate(at, "")
	return pool, nil
}

func (o *ChargingStationOperator) GetPool(id types.PoolID) (*ChargingPool, bool) {
	return o.pools.get(id.String())
}

func (o *ChargingStationOperator) RemovePool(id types.PoolID, at time.Time) error {
	err := o.pools.remove(id.String(), func(p *ChargingPool) bool {
		return types.SameID(p.ID(), id)
	})
	if err != nil {
		return err
	}
	o.reaggregate(at, "")
	return nil
}

func (o *ChargingStationOperator) Pools() []*ChargingPool {
	return o.pools.snapshot()
}

// Stations returns all stations of all pools, pool order first.
func (o *ChargingStationOperator) Stations() []*ChargingStation {
	var stations []*ChargingStation
	for _, pool := range o.pools.snapshot() {
		stations = append(stations, pool.Stations()...)
	}
	return stations
}

// EVSEs returns every EVSE below this operator.
func (o *ChargingStationOperator) EVSEs() []*EVSE {
	var evses []*EVSE
	for _, station := range o.Stations() {
		evses = append(evses, station.EVSEs()...)
	}
	return evses
}

func (o *ChargingStationOperator) Status() status.Entry[types.StationStatus] {
	return o.operational.current()
}

func (o *ChargingStationOperator) AdminStatus() status.Entry[types.AdminStatus] {
	return o.admin.current()
}

func (o *ChargingStationOperator) OnStatusChanged(listener func(at time.Time, trackingID string, operator *ChargingStationOperator, old, new status.Entry[types.StationStatus])) {
	if listener == nil {
		return
	}
	o.operational.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.StationStatus]) {
		listener(at, trackingID, o, old, new)
	})
}

func (o *ChargingStationOperator) reaggregate(at time.Time, trackingID string) {
	children := o.pools.snapshot()
	values := make([]types.StationStatus, 0, len(children))
	for _, pool := range children {
		values = append(values, pool.Status().Value)
	}
	o.operational.set(o.aggregate(values), at, trackingID, "")
}

func (o *ChargingStationOperator) reaggregateAdmin(at time.Time, trackingID string) {
	children := o.pools.snapshot()
	values := make([]types.AdminStatus, 0, len(children))
	for _, pool := range children {
		values = append(values, pool.AdminStatus().Value)
	}
	o.admin.set(o.aggregateAdmin(values), at, trackingID, "")
}

// StatusReport breaks down the current pool statuses of this operator.
func (o *ChargingStationOperator) StatusReport() status.Report {
	return status.GenerateReport(o.pools.snapshot(), func(p *ChargingPool) string {
		return string(p.Status().Value)
	})
}

// EvseStatusReport breaks down every EVSE status below this operator.
func (o *ChargingStationOperator) EvseStatusReport() status.Report {
	return status.GenerateReport(o.EVSEs(), func(e *EVSE) string {
		return string(e.Status().Value)
	})
}

// AdminStatusReport breaks down the current pool admin statuses.
func (o *ChargingStationOperator) AdminStatusReport() status.Report {
	return status.GenerateReport(o.pools.snapshot(), func(p *ChargingPool) string {
		return string(p.AdminStatus().Value)
	})
}
