package server

import (
	"context"

	"wwcp/roaming"
	"wwcp/status"
)

// NetworkAdapter exposes the local network tree through the partner adapter
// surface, so updates pushed by a roaming partner are applied exactly like
// gateway notifications: same validation, audit trail and event fan-out.
type NetworkAdapter struct {
	roaming.UnsupportedAdapter
	handler *SystemHandler
	name    string
}

func NewNetworkAdapter(name string, handler *SystemHandler) *NetworkAdapter {
	return &NetworkAdapter{handler: handler, name: name}
}

func (a *NetworkAdapter) Name() string {
	return a.name
}

func (a *NetworkAdapter) ReceiveEvseStatus(ctx context.Context, updates []roaming.EvseStatusUpdate, params roaming.Params) (status.Result[roaming.EvseStatusUpdate], error) {
	result := status.Apply(ctx, updates, func(ctx context.Context, update roaming.EvseStatusUpdate) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return a.handler.applyStatus(update.ID.String(), "", string(update.New.Value),
			update.New.Timestamp, params.EventTrackingId, update.Context)
	})
	return result, nil
}

func (a *NetworkAdapter) ReceiveEvseAdminStatus(ctx context.Context, updates []roaming.EvseAdminStatusUpdate, params roaming.Params) (status.Result[roaming.EvseAdminStatusUpdate], error) {
	result := status.Apply(ctx, updates, func(ctx context.Context, update roaming.EvseAdminStatusUpdate) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return a.handler.applyAdminStatus(update.ID.String(), "", string(update.New.Value),
			update.New.Timestamp, params.EventTrackingId, update.Context)
	})
	return result, nil
}
