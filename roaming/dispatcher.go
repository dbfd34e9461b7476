package roaming

import (
	"context"
	"fmt"
	"sync"

	"wwcp/internal"
	"wwcp/metrics/counters"
	"wwcp/models"
	"wwcp/status"
)

// PartnerResult is the outcome of pushing one batch to one partner.
type PartnerResult[Item any] struct {
	Partner string
	State   SendState
	Result  status.Result[Item]
	Err     error
}

// Dispatcher pushes update batches to every configured partner. Partners
// are pushed concurrently and independently: one partner timing out or
// rejecting a batch never delays or fails the others.
type Dispatcher struct {
	mu       sync.Mutex
	partners []Adapter
	senders  map[string]*sender
	coalesce bool
	logger   internal.LogHandler
}

func NewDispatcher(coalesce bool) *Dispatcher {
	return &Dispatcher{
		senders:  make(map[string]*sender),
		coalesce: coalesce,
	}
}

func (d *Dispatcher) SetLogger(logger internal.LogHandler) {
	d.logger = logger
}

func (d *Dispatcher) AddPartner(adapter Adapter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.partners = append(d.partners, adapter)
	d.senders[adapter.Name()] = newSender()
}

func (d *Dispatcher) PartnerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.partners)
}

func (d *Dispatcher) senderFor(name string) *sender {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.senders[name]
	if !ok {
		s = newSender()
		d.senders[name] = s
	}
	return s
}

func (d *Dispatcher) PushEvseStatus(ctx context.Context, updates []EvseStatusUpdate, params Params) []PartnerResult[EvseStatusUpdate] {
	if d.coalesce {
		updates = status.Coalesce(updates)
	}
	return dispatch(ctx, d, updates, params, Adapter.ReceiveEvseStatus)
}

func (d *Dispatcher) PushStationStatus(ctx context.Context, updates []StationStatusUpdate, params Params) []PartnerResult[StationStatusUpdate] {
	if d.coalesce {
		updates = status.Coalesce(updates)
	}
	return dispatch(ctx, d, updates, params, Adapter.ReceiveStationStatus)
}

func (d *Dispatcher) PushEvseAdminStatus(ctx context.Context, updates []EvseAdminStatusUpdate, params Params) []PartnerResult[EvseAdminStatusUpdate] {
	if d.coalesce {
		updates = status.Coalesce(updates)
	}
	return dispatch(ctx, d, updates, params, Adapter.ReceiveEvseAdminStatus)
}

func (d *Dispatcher) PushEvseEnergyStatus(ctx context.Context, updates []EvseEnergyStatusUpdate, params Params) []PartnerResult[EvseEnergyStatusUpdate] {
	if d.coalesce {
		updates = status.Coalesce(updates)
	}
	return dispatch(ctx, d, updates, params, Adapter.ReceiveEvseEnergyStatus)
}

func (d *Dispatcher) PushEvseData(ctx context.Context, evses []models.Evse, params Params) []PartnerResult[models.Evse] {
	return dispatch(ctx, d, evses, params, Adapter.AddOrUpdateEvses)
}

func (d *Dispatcher) PushStationData(ctx context.Context, stations []models.ChargingStation, params Params) []PartnerResult[models.ChargingStation] {
	return dispatch(ctx, d, stations, params, Adapter.AddOrUpdateStations)
}

// dispatch fans one batch out to all partners. Each partner call runs under
// its own context so cancelling or timing out one never touches the rest.
// Results come back in partner registration order regardless of which call
// finished first.
func dispatch[Item any](ctx context.Context, d *Dispatcher, items []Item, params Params,
	call func(Adapter, context.Context, []Item, Params) (status.Result[Item], error)) []PartnerResult[Item] {

	d.mu.Lock()
	partners := make([]Adapter, len(d.partners))
	copy(partners, d.partners)
	d.mu.Unlock()

	if len(partners) == 0 || len(items) == 0 {
		return nil
	}

	results := make([]PartnerResult[Item], len(partners))
	var wg sync.WaitGroup
	for i, partner := range partners {
		wg.Add(1)
		go func(i int, partner Adapter) {
			defer wg.Done()
			results[i] = pushOne(ctx, d, partner, items, params, call)
		}(i, partner)
	}
	wg.Wait()
	return results
}

// pushOne runs the full send lifecycle for one partner: claim the sender,
// run the call under the partner's own deadline, record the terminal state.
func pushOne[Item any](ctx context.Context, d *Dispatcher, partner Adapter, items []Item, params Params,
	call func(Adapter, context.Context, []Item, Params) (status.Result[Item], error)) PartnerResult[Item] {

	name := partner.Name()
	s := d.senderFor(name)
	if err := s.begin(); err != nil {
		return PartnerResult[Item]{Partner: name, State: SendFailed, Err: err}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if params.RequestTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, params.RequestTimeout)
		defer cancel()
	}

	result, err := call(partner, callCtx, items, params)
	if err == nil && callCtx.Err() != nil {
		err = status.Timeoutf("partner %s: %v", name, callCtx.Err())
		result = failAll(items, err)
	}
	state := s.finish(err)

	counters.ObservePushOutcome(name, string(state))
	if state == SendCompleted {
		counters.CountPushedUpdates(name, len(items))
	}
	if d.logger != nil && err != nil {
		d.logger.Warn(fmt.Sprintf("push to %s finished %s: %v", name, state, err))
	}
	return PartnerResult[Item]{Partner: name, State: state, Result: result, Err: err}
}
