package network

import (
	"time"

	"wwcp/status"
	"wwcp/types"
)

// GridOperator attaches at the network level, next to the CSO chain. It has
// no children and tracks an admin status only, so it carries just that one
// capability.
type GridOperator struct {
	id    types.GridOperatorID
	name  string
	admin *statusFacet[types.AdminStatus]
}

func newGridOperator(id types.GridOperatorID, name string, at time.Time) *GridOperator {
	return &GridOperator{
		id:    id,
		name:  name,
		admin: newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
	}
}

func (g *GridOperator) ID() types.GridOperatorID { return g.id }
func (g *GridOperator) Name() string             { return g.name }

func (g *GridOperator) AdminStatus() status.Entry[types.AdminStatus] {
	return g.admin.current()
}

func (g *GridOperator) SetAdminStatus(value types.AdminStatus, at time.Time, trackingID, context string) bool {
	_, _, changed := g.admin.set(value, at, trackingID, context)
	return changed
}

func (g *GridOperator) OnAdminStatusChanged(listener func(at time.Time, trackingID string, gridOperator *GridOperator, old, new status.Entry[types.AdminStatus])) {
	if listener == nil {
		return
	}
	g.admin.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.AdminStatus]) {
		listener(at, trackingID, g, old, new)
	})
}

// EMobilityProvider is the contract-issuing side of the federation, also a
// network-level sibling with admin status only.
type EMobilityProvider struct {
	id    types.ProviderID
	name  string
	admin *statusFacet[types.AdminStatus]
}

func newProvider(id types.ProviderID, name string, at time.Time) *EMobilityProvider {
	return &EMobilityProvider{
		id:    id,
		name:  name,
		admin: newStatusFacet(types.AdminStatusOperational, at, status.DefaultMaxHistorySize),
	}
}

func (p *EMobilityProvider) ID() types.ProviderID { return p.id }
func (p *EMobilityProvider) Name() string         { return p.name }

func (p *EMobilityProvider) AdminStatus() status.Entry[types.AdminStatus] {
	return p.admin.current()
}

func (p *EMobilityProvider) SetAdminStatus(value types.AdminStatus, at time.Time, trackingID, context string) bool {
	_, _, changed := p.admin.set(value, at, trackingID, context)
	return changed
}

func (p *EMobilityProvider) OnAdminStatusChanged(listener func(at time.Time, trackingID string, provider *EMobilityProvider, old, new status.Entry[types.AdminStatus])) {
	if listener == nil {
		return
	}
	p.admin.subscribe(func(at time.Time, trackingID string, old, new status.Entry[types.AdminStatus]) {
		listener(at, trackingID, p, old, new)
	})
}
