package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// ChargingPool groups the stations of one site.
type ChargingPool struct {
	id       types.PoolID
	operator *ChargingStationOperator

	stations *childSet[*ChargingStation]

	operational *statusFacet[types.StationStatus]
	admin       *statusFacet[types.AdminStatus]

	aggregate      StationAggregation
	aggregateAdmin AdminAggregation
}

func newChargingPool(id types.PoolID, operator *ChargingStationOperator, at time.Time) *ChargingPool {
	return &ChargingPool{
		id:             id,
		operator:       operator,
		stations:       newChildSet[*ChargingStation](),
		operational:    newStatusFacet(types.StationStatusUnknown, at, status.DefaultMaxHistorySize),
		admin:          newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
		aggregate:      MostSevereStation,
		aggregateAdmin: MostSevereAdmin,
	}
}

func (p *ChargingPool) ID() types.PoolID                   { return p.id }
func (p *ChargingPool) Operator() *ChargingStationOperator { return p.operator }

func (p *ChargingPool) SetAggregation(policy StationAggregation) {
	if policy != nil {
		p.aggregate = policy
	}
}

func (p *ChargingPool) CreateStation(id types.StationID, at time.Time) (*ChargingStation, error) {
	if id == "" {
		return nil, status.Validationf("station id must not be empty")
	}
	station := newChargingStation(id, p, at)
	if err := p.stations.add(id.String(), station); err != nil {
		return nil, err
	}
	station.OnStatusChanged(func(at time.Time, trackingID string, _ *ChargingStation, _, _ status.Entry[types.StationStatus]) {
		p.reaggregate(at, trackingID)
	})
	station.OnAdminStatusChanged(func(at time.Time, trackingID string, _ *ChargingStation, _, _ status.Entry[types.AdminStatus]) {
		p.reaggregateAdmin(at, trackingID)
	})
	p.reaggregate(at, "")
	return station, nil
}

func (p *ChargingPool) GetStation(id types.StationID) (*ChargingStation, bool) {
	return p.stations.get(id.String())
}

func (p *ChargingPool) RemoveStation(id types.StationID, at time.Time) error {
	err := p.stations.remove(id.String(), func(s *ChargingStation) bool {
		return types.SameID(s.ID(), id)
	})
	if err != nil {
		return err
	}
	p.reaggregate(at, "")
	return nil
}

func (p *ChargingPool) Stations() []*ChargingStation {
	return p.stations.snapshot()
}

func (p *ChargingPool) Status() status.Entry[types.StationStatus] {
	return p.operational.current()
}

func (p *ChargingPool) AdminStatus() status.Entry[types.AdminStatus] {
	return p.admin.current()
}

func (p *ChargingPool) StatusHistory(skip, take, historySize int) []status.Entry[types.StationStatus] {
	return p.operational.history(skip, take, historySize)
}

func (p *ChargingPool) OnStatusChanged(listener func(at time.Time, trackingID string, pool *ChargingPool, old, new status.Entry[types.StationStatus])) {
	if listener == nil {
		return
	}
	p.operational.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.StationStatus]) {
		listener(at, trackingID, p, old, new)
	})
}

func (p *ChargingPool) reaggregate(at time.Time, trackingID string) {
	children := p.stations.snapshot()
	values := make([]types.StationStatus, 0, len(children))
	for _, station := range children {
		values = append(values, station.Status().Value)
	}
	p.operational.set(p.aggregate(values), at, trackingID, "")
}

func (p *ChargingPool) reaggregateAdmin(at time.Time, trackingID string) {
	children := p.stations.snapshot()
	values := make([]types.AdminStatus, 0, len(children))
	for _, station := range children {
		values = append(values, station.AdminStatus().Value)
	}
	p.admin.set(p.aggregateAdmin(values), at, trackingID, "")
}

// StatusReport breaks down the current station statuses of this pool.
func (p *ChargingPool) StatusReport() status.Report {
	return status.GenerateReport(p.stations.snapshot(), func(s *ChargingStation) string {
		return string(s.Status().Value)
	})
}

// AdminStatusReport breaks down the current station admin statuses.
func (p *ChargingPool) AdminStatusReport() status.Report {
	return status.GenerateReport(p.stations.snapshot(), func(s *ChargingStation) string {
		return string(s.AdminStatus().Value)
	})
}
