package network

import "wwcp/types"

// EvseAggregation derives a station status from its EVSE statuses.
type EvseAggregation func(children []types.EvseStatus) types.StationStatus

// StationAggregation derives a parent status from aggregated child statuses,
// used by pools, operators and the roaming network.
type StationAggregation func(children []types.StationStatus) types.StationStatus

// AdminAggregation derives a parent admin status from child admin statuses.
type AdminAggregation func(children []types.AdminStatus) types.AdminStatus

// EnergyAggregation derives a station energy status from its EVSE energy
// statuses.
type EnergyAggregation func(children []types.EnergyStatus) types.EnergyStatus

// MostSevereEvse is the default station aggregation: any out-of-service EVSE
// degrades the station, and the station only reports a full outage when no
// EVSE is left in service.
func MostSevereEvse(children []types.EvseStatus) types.StationStatus {
	if len(children) == 0 {
		return types.StationStatusUnknown
	}
	inService, busy, offline := 0, 0, 0
	for _, child := range children {
		if child.InService() {
			inService++
			if child != types.EvseStatusAvailable {
				busy++
			}
		} else if child == types.EvseStatusOffline {
			offline++
		}
	}
	switch {
	case inService == 0 && offline == len(children):
		return types.StationStatusOffline
	case inService == 0:
		return types.StationStatusOutage
	case inService < len(children):
		return types.StationStatusPartialOutage
	case busy == 0:
		return types.StationStatusAvailable
	case busy == len(children):
		return types.StationStatusInUse
	default:
		return types.StationStatusPartialInUse
	}
}

// MostSevereStation aggregates already-aggregated child statuses one level up.
func MostSevereStation(children []types.StationStatus) types.StationStatus {
	if len(children) == 0 {
		return types.StationStatusUnknown
	}
	inService, busy, offline := 0, 0, 0
	for _, child := range children {
		if child.InService() {
			inService++
			if child != types.StationStatusAvailable {
				busy++
			}
		} else if child == types.StationStatusOffline {
			offline++
		}
	}
	switch {
	case inService == 0 && offline == len(children):
		return types.StationStatusOffline
	case inService == 0:
		return types.StationStatusOutage
	case inService < len(children):
		return types.StationStatusPartialOutage
	case busy == 0:
		return types.StationStatusAvailable
	case busy == len(children):
		return types.StationStatusInUse
	default:
		return types.StationStatusPartialInUse
	}
}

// MajorityStation reports the most common child status, most severe winning
// ties. Offered as an alternative for operators that prefer net effect over
// worst case.
func MajorityStation(children []types.StationStatus) types.StationStatus {
	if len(children) == 0 {
		return types.StationStatusUnknown
	}
	counts := make(map[types.StationStatus]int, len(children))
	for _, child := range children {
		counts[child]++
	}
	winner := children[0]
	for candidate, count := range counts {
		if count > counts[winner] ||
			(count == counts[winner] && candidate.Severity() > winner.Severity()) {
			winner = candidate
		}
	}
	return winner
}

// MostSevereEnergy keeps the worst grid energy state visible at the station.
func MostSevereEnergy(children []types.EnergyStatus) types.EnergyStatus {
	if len(children) == 0 {
		return types.EnergyStatusUnknown
	}
	worst := children[0]
	for _, child := range children[1:] {
		if child.Severity() > worst.Severity() {
			worst = child
		}
	}
	return worst
}

// MostSevereAdmin keeps the worst administrative state visible at the parent.
func MostSevereAdmin(children []types.AdminStatus) types.AdminStatus {
	if len(children) == 0 {
		return types.AdminStatusUnknown
	}
	worst := children[0]
	for _, child := range children[1:] {
		if child.Severity() > worst.Severity() {
			worst = child
		}
	}
	return worst
}
