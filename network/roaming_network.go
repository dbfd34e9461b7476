package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// RoamingNetwork is the root of the containment tree. Charging station
// operators cascade their aggregated status into it; grid operators and
// e-mobility providers attach as siblings of the CSO chain and do not feed
// the operational aggregation.
type RoamingNetwork struct {
	id types.NetworkID

	operators     *childSet[*ChargingStationOperator]
	gridOperators *childSet[*GridOperator]
	providers     *childSet[*EMobilityProvider]

	operational *statusFacet[types.StationStatus]
	admin       *statusFacet[types.AdminStatus]

	aggregate StationAggregation
}

func NewRoamingNetwork(id types.NetworkID, at time.Time) *RoamingNetwork {
	return &RoamingNetwork{
		id:            id,
		operators:     newChildSet[*ChargingStationOperator](),
		gridOperators: newChildSet[*GridOperator](),
		providers:     newChildSet[*EMobilityProvider](),
		operational:   newStatusFacet(types.StationStatusUnknown, at, status.DefaultMaxHistorySize),
		admin:         newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
		aggregate:     MostSevereStation,
	}
}

func (n *RoamingNetwork) ID() types.NetworkID { return n.id }

func (n *RoamingNetwork) SetAggregation(policy StationAggregation) {
	if policy != nil {
		n.aggregate = policy
	}
}

func (n *RoamingNetwork) CreateOperator(id types.OperatorID, at time.Time) (*ChargingStationOperator, error) {
	if id == "" {
		return nil, status.Validationf("operator id must not be empty")
	}
	operator := newOperator(id, n, at)
	if err := n.operators.add(id.String(), operator); err != nil {
		return nil, err
	}
	operator.OnStatusChanged(func(at time.Time, trackingID string, _ *ChargingStationOperator, _, _ status.Entry[types.StationStatus]) {
		n.reaggregate(at, trackingID)
	})
	n.reaggregate(at, "")
	return operator, nil
}

func (n *RoamingNetwork) GetOperator(id types.OperatorID) (*ChargingStationOperator, bool) {
	return n.operators.get(id.String())
}

func (n *RoamingNetwork) Operators() []*ChargingStationOperator {
	return n.operators.snapshot()
}

func (n *RoamingNetwork) CreateGridOperator(id types.GridOperatorID, name string, at time.Time) (*GridOperator, error) {
	id, err := types.ParseGridOperatorID(string(id))
	if err != nil {
		return nil, status.Validationf("%v", err)
	}
	gridOperator := newGridOperator(id, name, at)
	if err := n.gridOperators.add(string(id), gridOperator); err != nil {
		return nil, err
	}
	return gridOperator, nil
}

func (n *RoamingNetwork) GetGridOperator(id types.GridOperatorID) (*GridOperator, bool) {
	return n.gridOperators.get(string(id))
}

func (n *RoamingNetwork) CreateProvider(id types.ProviderID, name string, at time.Time) (*EMobilityProvider, error) {
	id, err := types.ParseProviderID(string(id))
	if err != nil {
		return nil, status.Validationf("%v", err)
	}
	provider := newProvider(id, name, at)
	if err := n.providers.add(string(id), provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func (n *RoamingNetwork) GetProvider(id types.ProviderID) (*EMobilityProvider, bool) {
	return n.providers.get(string(id))
}

func (n *RoamingNetwork) Providers() []*EMobilityProvider {
	return n.providers.snapshot()
}

func (n *RoamingNetwork) Status() status.Entry[types.StationStatus] {
	return n.operational.current()
}

func (n *RoamingNetwork) StatusHistory(skip, take, historySize int) []status.Entry[types.StationStatus] {
	return n.operational.history(skip, take, historySize)
}

// OnStatusChanged registers a listener for network-level head changes. The
// cascade terminates here: the network has no parent to notify.
func (n *RoamingNetwork) OnStatusChanged(listener func(at time.Time, trackingID string, network *RoamingNetwork, old, new status.Entry[types.StationStatus])) {
	if listener == nil {
		return
	}
	n.operational.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.StationStatus]) {
		listener(at, trackingID, n, old, new)
	})
}

func (n *RoamingNetwork) reaggregate(at time.Time, trackingID string) {
	children := n.operators.snapshot()
	values := make([]types.StationStatus, 0, len(children))
	for _, operator := range children {
		values = append(values, operator.Status().Value)
	}
	n.operational.set(n.aggregate(values), at, trackingID, "")
}

// EVSEs returns every EVSE in the network.
func (n *RoamingNetwork) EVSEs() []*EVSE {
	var evses []*EVSE
	for _, operator := range n.operators.snapshot() {
		evses = append(evses, operator.EVSEs()...)
	}
	return evses
}

// FindEvse resolves an EVSE anywhere in the tree by id.
func (n *RoamingNetwork) FindEvse(id types.EvseID) (*EVSE, bool) {
	for _, operator := range n.operators.snapshot() {
		for _, station := range operator.Stations() {
			if evse, ok := station.GetEvse(id); ok {
				return evse, true
			}
		}
	}
	return nil, false
}

// FindStation resolves a station anywhere in the tree by id.
func (n *RoamingNetwork) FindStation(id types.StationID) (*ChargingStation, bool) {
	for _, operator := range n.operators.snapshot() {
		for _, pool := range operator.Pools() {
			if station, ok := pool.GetStation(id); ok {
				return station, true
			}
		}
	}
	return nil, false
}

// StatusReport breaks down the operator statuses of the network.
func (n *RoamingNetwork) StatusReport() status.Report {
	return status.GenerateReport(n.operators.snapshot(), func(o *ChargingStationOperator) string {
		return string(o.Status().Value)
	})
}

// EvseStatusReport breaks down every EVSE status in the network.
func (n *RoamingNetwork) EvseStatusReport() status.Report {
	return status.GenerateReport(n.EVSEs(), func(e *EVSE) string {
		return string(e.Status().Value)
	})
}
