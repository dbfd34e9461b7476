package types

// EvseStatus is the operational status of a single EVSE.
type EvseStatus string

const (
	EvseStatusAvailable    EvseStatus = "Available"
	EvseStatusReserved     EvseStatus = "Reserved"
	EvseStatusOccupied     EvseStatus = "Occupied"
	EvseStatusCharging     EvseStatus = "Charging"
	EvseStatusOutOfService EvseStatus = "OutOfService"
	EvseStatusOffline      EvseStatus = "Offline"
	EvseStatusFaulted      EvseStatus = "Faulted"
	EvseStatusUnknown      EvseStatus = "Unknown"
)

// StationStatus is the aggregated operational status of a charging station,
// pool, operator or the roaming network itself.
type StationStatus string

const (
	StationStatusAvailable     StationStatus = "Available"
	StationStatusPartialInUse  StationStatus = "PartialInUse"
	StationStatusInUse         StationStatus = "InUse"
	StationStatusPartialOutage StationStatus = "PartialOutage"
	StationStatusOutage        StationStatus = "Outage"
	StationStatusOffline       StationStatus = "Offline"
	StationStatusUnknown       StationStatus = "Unknown"
)

// AdminStatus is the administrative status shared by all entity kinds.
type AdminStatus string

const (
	AdminStatusOperational  AdminStatus = "Operational"
	AdminStatusInternalUse  AdminStatus = "InternalUse"
	AdminStatusPlanned      AdminStatus = "Planned"
	AdminStatusOutOfService AdminStatus = "OutOfService"
	AdminStatusDeleted      AdminStatus = "Deleted"
	AdminStatusUnknown      AdminStatus = "Unknown"
)

// EnergyStatus reports grid energy availability for an EVSE or station.
type EnergyStatus string

const (
	EnergyStatusAvailable   EnergyStatus = "EnergyAvailable"
	EnergyStatusReduced     EnergyStatus = "EnergyReduced"
	EnergyStatusUnavailable EnergyStatus = "EnergyUnavailable"
	EnergyStatusUnknown     EnergyStatus = "Unknown"
)

var evseSeverity = map[EvseStatus]int{
	EvseStatusAvailable:    0,
	EvseStatusReserved:     1,
	EvseStatusOccupied:     2,
	EvseStatusCharging:     2,
	EvseStatusUnknown:      3,
	EvseStatusOutOfService: 4,
	EvseStatusOffline:      5,
	EvseStatusFaulted:      6,
}

var stationSeverity = map[StationStatus]int{
	StationStatusAvailable:     0,
	StationStatusPartialInUse:  1,
	StationStatusInUse:         2,
	StationStatusUnknown:       3,
	StationStatusPartialOutage: 4,
	StationStatusOutage:        5,
	StationStatusOffline:       6,
}

// Severity ranks an EVSE status for most-severe-wins aggregation.
// Unknown values rank above Available so a bad report is never hidden.
func (s EvseStatus) Severity() int {
	if rank, ok := evseSeverity[s]; ok {
		return rank
	}
	return evseSeverity[EvseStatusUnknown]
}

func (s StationStatus) Severity() int {
	if rank, ok := stationSeverity[s]; ok {
		return rank
	}
	return stationSeverity[StationStatusUnknown]
}

var adminSeverity = map[AdminStatus]int{
	AdminStatusOperational:  0,
	AdminStatusInternalUse:  1,
	AdminStatusPlanned:      2,
	AdminStatusUnknown:      3,
	AdminStatusOutOfService: 4,
	AdminStatusDeleted:      5,
}

func (s AdminStatus) Severity() int {
	if rank, ok := adminSeverity[s]; ok {
		return rank
	}
	return adminSeverity[AdminStatusUnknown]
}

var energySeverity = map[EnergyStatus]int{
	EnergyStatusAvailable:   0,
	EnergyStatusReduced:     1,
	EnergyStatusUnknown:     2,
	EnergyStatusUnavailable: 3,
}

func (s EnergyStatus) Severity() int {
	if rank, ok := energySeverity[s]; ok {
		return rank
	}
	return energySeverity[EnergyStatusUnknown]
}

// InService reports whether the status describes a usable asset.
func (s EvseStatus) InService() bool {
	switch s {
	case EvseStatusAvailable, EvseStatusReserved, EvseStatusOccupied, EvseStatusCharging:
		return true
	}
	return false
}

func (s StationStatus) InService() bool {
	switch s {
	case StationStatusAvailable, StationStatusPartialInUse, StationStatusInUse:
		return true
	}
	return false
}

func (s AdminStatus) InService() bool {
	switch s {
	case AdminStatusOperational, AdminStatusInternalUse:
		return true
	}
	return false
}

// GetEvseStatus maps free text to a known EVSE status, Unknown otherwise.
func GetEvseStatus(s string) EvseStatus {
	status := EvseStatus(s)
	if _, ok := evseSeverity[status]; ok {
		return status
	}
	return EvseStatusUnknown
}

func GetStationStatus(s string) StationStatus {
	status := StationStatus(s)
	if _, ok := stationSeverity[status]; ok {
		return status
	}
	return StationStatusUnknown
}

func GetAdminStatus(s string) AdminStatus {
	switch status := AdminStatus(s); status {
	case AdminStatusOperational, AdminStatusInternalUse, AdminStatusPlanned,
		AdminStatusOutOfService, AdminStatusDeleted:
		return status
	}
	return AdminStatusUnknown
}

func GetEnergyStatus(s string) EnergyStatus {
	switch status := EnergyStatus(s); status {
	case EnergyStatusAvailable, EnergyStatusReduced, EnergyStatusUnavailable:
		return status
	}
	return EnergyStatusUnknown
}
