package types

import (
	"fmt"
	"strings"
)

// Entity identifiers are opaque strings. Comparison is case-insensitive,
// matching the roaming registries that treat "DE*GEF*E1" and "de*gef*e1"
// as the same asset.

type EvseID string
type StationID string
type PoolID string
type OperatorID string
type NetworkID string
type ProviderID string
type GridOperatorID string

func parseID(kind, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty %s id", kind)
	}
	return s, nil
}

func ParseEvseID(s string) (EvseID, error) {
	id, err := parseID("evse", s)
	return EvseID(id), err
}

func ParseStationID(s string) (StationID, error) {
	id, err := parseID("station", s)
	return StationID(id), err
}

func ParsePoolID(s string) (PoolID, error) {
	id, err := parseID("pool", s)
	return PoolID(id), err
}

func ParseOperatorID(s string) (OperatorID, error) {
	id, err := parseID("operator", s)
	return OperatorID(id), err
}

func ParseNetworkID(s string) (NetworkID, error) {
	id, err := parseID("network", s)
	return NetworkID(id), err
}

func ParseProviderID(s string) (ProviderID, error) {
	id, err := parseID("provider", s)
	return ProviderID(id), err
}

func ParseGridOperatorID(s string) (GridOperatorID, error) {
	id, err := parseID("grid operator", s)
	return GridOperatorID(id), err
}

func (id EvseID) String() string         { return string(id) }
func (id StationID) String() string      { return string(id) }
func (id PoolID) String() string         { return string(id) }
func (id OperatorID) String() string     { return string(id) }
func (id NetworkID) String() string      { return string(id) }
func (id ProviderID) String() string     { return string(id) }
func (id GridOperatorID) String() string { return string(id) }

// SameID folds case before comparing, the equality used for all entity keys.
func SameID[T ~string](a, b T) bool {
	return strings.EqualFold(string(a), string(b))
}

// CompareID orders ids over their case-folded text.
func CompareID[T ~string](a, b T) int {
	return strings.Compare(strings.ToLower(string(a)), strings.ToLower(string(b)))
}

// Key normalizes an id for use as a map key.
func Key[T ~string](id T) string {
	return strings.ToLower(string(id))
}
