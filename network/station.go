package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// ChargingStation owns a set of EVSEs and re-aggregates their operational,
// admin and energy statuses into its own schedules.
type ChargingStation struct {
	id   types.StationID
	pool *ChargingPool

	evses *childSet[*EVSE]

	operational *statusFacet[types.StationStatus]
	admin       *statusFacet[types.AdminStatus]
	energy      *statusFacet[types.EnergyStatus]

	aggregate       EvseAggregation
	aggregateAdmin  AdminAggregation
	aggregateEnergy EnergyAggregation
}

func newChargingStation(id types.StationID, pool *ChargingPool, at time.Time) *ChargingStation {
	return &ChargingStation{
		id:              id,
		pool:            pool,
		evses:           newChildSet[*EVSE](),
		operational:     newStatusFacet(types.StationStatusUnknown, at, status.DefaultMaxHistorySize),
		admin:           newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
		energy:          newStatusFacet(types.EnergyStatusAvailable, at, status.DefaultMaxHistorySize),
		aggregate:       MostSevereEvse,
		aggregateAdmin:  MostSevereAdmin,
		aggregateEnergy: MostSevereEnergy,
	}
}

func (s *ChargingStation) ID() types.StationID { return s.id }
func (s *ChargingStation) Pool() *ChargingPool { return s.pool }

// SetAggregation replaces the default most-severe-wins policy. Call before
// the first EVSE reports, not concurrently with status traffic.
func (s *ChargingStation) SetAggregation(policy EvseAggregation) {
	if policy != nil {
		s.aggregate = policy
	}
}

// CreateEvse creates an EVSE bound to this station. The strict containment
// tree is built through these factories: a child belongs to exactly one
// parent for its whole life, so cycles cannot be formed. Returns a Conflict
// fault when the id is already taken.
func (s *ChargingStation) CreateEvse(id types.EvseID, at time.Time) (*EVSE, error) {
	if id == "" {
		return nil, status.Validationf("evse id must not be empty")
	}
	evse := newEVSE(id, s, at)
	if err := s.evses.add(id.String(), evse); err != nil {
		return nil, err
	}
	evse.OnStatusChanged(func(at time.Time, trackingID string, _ *EVSE, _, _ status.Entry[types.EvseStatus]) {
		s.reaggregate(at, trackingID)
	})
	evse.OnAdminStatusChanged(func(at time.Time, trackingID string, _ *EVSE, _, _ status.Entry[types.AdminStatus]) {
		s.reaggregateAdmin(at, trackingID)
	})
	evse.OnEnergyStatusChanged(func(at time.Time, trackingID string, _ *EVSE, _, _ status.Entry[types.EnergyStatus]) {
		s.reaggregateEnergy(at, trackingID)
	})
	s.reaggregate(at, "")
	return evse, nil
}

func (s *ChargingStation) GetEvse(id types.EvseID) (*EVSE, bool) {
	return s.evses.get(id.String())
}

func (s *ChargingStation) RemoveEvse(id types.EvseID, at time.Time) error {
	err := s.evses.remove(id.String(), func(e *EVSE) bool {
		return types.SameID(e.ID(), id)
	})
	if err != nil {
		return err
	}
	s.reaggregate(at, "")
	return nil
}

// EVSEs returns a stable snapshot of the child list in attach order.
func (s *ChargingStation) EVSEs() []*EVSE {
	return s.evses.snapshot()
}

func (s *ChargingStation) Status() status.Entry[types.StationStatus] {
	return s.operational.current()
}

func (s *ChargingStation) AdminStatus() status.Entry[types.AdminStatus] {
	return s.admin.current()
}

func (s *ChargingStation) EnergyStatus() status.Entry[types.EnergyStatus] {
	return s.energy.current()
}

func (s *ChargingStation) StatusHistory(skip, take, historySize int) []status.Entry[types.StationStatus] {
	return s.operational.history(skip, take, historySize)
}

func (s *ChargingStation) OnStatusChanged(listener func(at time.Time, trackingID string, station *ChargingStation, old, new status.Entry[types.StationStatus])) {
	if listener == nil {
		return
	}
	s.operational.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.StationStatus]) {
		listener(at, trackingID, s, old, new)
	})
}

func (s *ChargingStation) OnAdminStatusChanged(listener func(at time.Time, trackingID string, station *ChargingStation, old, new status.Entry[types.AdminStatus])) {
	if listener == nil {
		return
	}
	s.admin.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.AdminStatus]) {
		listener(at, trackingID, s, old, new)
	})
}

// reaggregate recomputes the station status from the EVSE snapshot. The
// insert only fires further up the cascade when the aggregated value
// actually changed, which terminates the propagation early.
func (s *ChargingStation) reaggregate(at time.Time, trackingID string) {
	children := s.evses.snapshot()
	values := make([]types.EvseStatus, 0, len(children))
	for _, evse := range children {
		values = append(values, evse.Status().Value)
	}
	s.operational.set(s.aggregate(values), at, trackingID, "")
}

func (s *ChargingStation) reaggregateAdmin(at time.Time, trackingID string) {
	children := s.evses.snapshot()
	values := make([]types.AdminStatus, 0, len(children))
	for _, evse := range children {
		values = append(values, evse.AdminStatus().Value)
	}
	s.admin.set(s.aggregateAdmin(values), at, trackingID, "")
}

func (s *ChargingStation) reaggregateEnergy(at time.Time, trackingID string) {
	children := s.evses.snapshot()
	values := make([]types.EnergyStatus, 0, len(children))
	for _, evse := range children {
		values = append(values, evse.EnergyStatus().Value)
	}
	s.energy.set(s.aggregateEnergy(values), at, trackingID, "")
}

// StatusReport breaks down the current EVSE statuses of this station.
func (s *ChargingStation) StatusReport() status.Report {
	return status.GenerateReport(s.evses.snapshot(), func(e *EVSE) string {
		return string(e.Status().Value)
	})
}

// AdminStatusReport breaks down the current EVSE admin statuses.
func (s *ChargingStation) AdminStatusReport() status.Report {
	return status.GenerateReport(s.evses.snapshot(), func(e *EVSE) string {
		return string(e.AdminStatus().Value)
	})
}
