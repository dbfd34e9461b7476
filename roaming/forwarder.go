package roaming

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wwcp/internal"
	"wwcp/models"
	"wwcp/status"
	"wwcp/types"
)

const (
	forwarderQueueSize = 1000
	flushBatchLimit    = 50
)

// Forwarder listens for status and data change events and turns them into
// batches pushed to the roaming partners. Events are buffered and flushed
// together after a short window so a burst of changes becomes one batch per
// dimension instead of one call per change.
type Forwarder struct {
	dispatcher *Dispatcher
	logger     internal.LogHandler
	flushAfter time.Duration
	events     chan *internal.EventMessage
}

func NewForwarder(dispatcher *Dispatcher) *Forwarder {
	forwarder := &Forwarder{
		dispatcher: dispatcher,
		flushAfter: time.Second,
		events:     make(chan *internal.EventMessage, forwarderQueueSize),
	}
	go forwarder.run()
	return forwarder
}

func (f *Forwarder) SetLogger(logger internal.LogHandler) {
	f.logger = logger
}

func (f *Forwarder) OnStatusChange(event *internal.EventMessage) {
	f.enqueue(event)
}

func (f *Forwarder) OnAdminStatusChange(event *internal.EventMessage) {
	f.enqueue(event)
}

func (f *Forwarder) OnDataChange(event *internal.EventMessage) {
	f.enqueue(event)
}

func (f *Forwarder) OnSessionFinished(event *internal.EventMessage) {
	if f.logger != nil {
		f.logger.FeatureEvent("sessionFinished", event.EntityId, "session records are not forwarded")
	}
}

func (f *Forwarder) enqueue(event *internal.EventMessage) {
	select {
	case f.events <- event:
	default:
		if f.logger != nil {
			f.logger.Warn("forwarder queue is full, dropping event for " + event.EntityId)
		}
	}
}

func (f *Forwarder) run() {
	var (
		operational []EvseStatusUpdate
		station     []StationStatusUpdate
		admin       []EvseAdminStatusUpdate
		energy      []EvseEnergyStatusUpdate
		evseData    []models.Evse
		stationData []models.ChargingStation
		trackingId  string
		timer       *time.Timer
		timeout     <-chan time.Time
	)

	flush := func() {
		f.flush(operational, station, admin, energy, evseData, stationData, trackingId)
		operational, station, admin, energy = nil, nil, nil, nil
		evseData, stationData = nil, nil
		trackingId = ""
		timeout = nil
	}

	for {
		select {
		case event, ok := <-f.events:
			if !ok {
				flush()
				return
			}
			if trackingId == "" {
				trackingId = event.TrackingId
			}
			switch update := event.Payload.(type) {
			case EvseStatusUpdate:
				operational = append(operational, update)
			case StationStatusUpdate:
				station = append(station, update)
			case EvseAdminStatusUpdate:
				admin = append(admin, update)
			case EvseEnergyStatusUpdate:
				energy = append(energy, update)
			case *models.Evse:
				evseData = append(evseData, *update)
			case *models.ChargingStation:
				stationData = append(stationData, *update)
			default:
				if u, ok := updateFromEvent(event); ok {
					operational = append(operational, u)
				}
			}
			if len(operational)+len(station)+len(admin)+len(energy)+len(evseData)+len(stationData) >= flushBatchLimit {
				flush()
				continue
			}
			if timeout == nil {
				if timer == nil {
					timer = time.NewTimer(f.flushAfter)
				} else {
					timer.Reset(f.flushAfter)
				}
				timeout = timer.C
			}
		case <-timeout:
			flush()
		}
	}
}

// Close stops the run loop after flushing anything still buffered.
func (f *Forwarder) Close() {
	close(f.events)
}

// updateFromEvent rebuilds an EVSE operational update from a bare event
// without a payload. The previous head is unknown, so Old stays nil.
func updateFromEvent(event *internal.EventMessage) (EvseStatusUpdate, bool) {
	if event.EntityKind != "evse" || event.NewStatus == "" {
		return EvseStatusUpdate{}, false
	}
	value := types.GetEvseStatus(event.NewStatus)
	entry := status.NewEntry(value, event.Time, event.Info)
	return EvseStatusUpdate{
		ID:      types.EvseID(event.EntityId),
		New:     entry,
		Context: event.TrackingId,
	}, true
}

func (f *Forwarder) flush(operational []EvseStatusUpdate, station []StationStatusUpdate,
	admin []EvseAdminStatusUpdate, energy []EvseEnergyStatusUpdate,
	evseData []models.Evse, stationData []models.ChargingStation, trackingId string) {

	if trackingId == "" {
		trackingId = uuid.NewString()
	}
	params := NewParams(trackingId)
	ctx := context.Background()

	if len(stationData) > 0 {
		report(f, f.dispatcher.PushStationData(ctx, stationData, params))
	}
	if len(evseData) > 0 {
		report(f, f.dispatcher.PushEvseData(ctx, evseData, params))
	}
	if len(operational) > 0 {
		report(f, f.dispatcher.PushEvseStatus(ctx, operational, params))
	}
	if len(station) > 0 {
		report(f, f.dispatcher.PushStationStatus(ctx, station, params))
	}
	if len(admin) > 0 {
		report(f, f.dispatcher.PushEvseAdminStatus(ctx, admin, params))
	}
	if len(energy) > 0 {
		report(f, f.dispatcher.PushEvseEnergyStatus(ctx, energy, params))
	}
}

func report[Item any](f *Forwarder, results []PartnerResult[Item]) {
	if f.logger == nil {
		return
	}
	for _, r := range results {
		if r.Err != nil {
			f.logger.Warn("push to " + r.Partner + " failed: " + r.Err.Error())
		}
	}
}
