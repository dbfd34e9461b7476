package roaming

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wwcp/internal"
	"wwcp/internal/config"
	"wwcp/models"
	"wwcp/status"
	"wwcp/types"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	UnsupportedAdapter
	name    string
	receive func(ctx context.Context, updates []EvseStatusUpdate, params Params) (status.Result[EvseStatusUpdate], error)
	calls   atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) ReceiveEvseStatus(ctx context.Context, updates []EvseStatusUpdate, params Params) (status.Result[EvseStatusUpdate], error) {
	f.calls.Add(1)
	if f.receive != nil {
		return f.receive(ctx, updates, params)
	}
	return okResult(updates), nil
}

func okResult(updates []EvseStatusUpdate) status.Result[EvseStatusUpdate] {
	result := status.Result[EvseStatusUpdate]{}
	for _, u := range updates {
		result.Items = append(result.Items, status.ItemResult[EvseStatusUpdate]{Item: u, Outcome: status.OutcomeSuccess})
	}
	return result
}

func sampleUpdates(n int) []EvseStatusUpdate {
	updates := make([]EvseStatusUpdate, 0, n)
	for i := 0; i < n; i++ {
		entry := status.NewEntry(types.EvseStatusCharging, t0.Add(time.Duration(i)*time.Minute), "")
		updates = append(updates, EvseStatusUpdate{ID: types.EvseID("DE*GEF*E1"), New: entry})
	}
	return updates
}

func TestDispatcherPartialFailure(t *testing.T) {
	good := &fakeAdapter{name: "good"}
	bad := &fakeAdapter{name: "bad", receive: func(_ context.Context, updates []EvseStatusUpdate, _ Params) (status.Result[EvseStatusUpdate], error) {
		err := status.Validationf("rejected")
		return failAll(updates, err), err
	}}

	d := NewDispatcher(false)
	d.AddPartner(good)
	d.AddPartner(bad)

	results := d.PushEvseStatus(context.Background(), sampleUpdates(2), NewParams("evt-1"))
	require.Len(t, results, 2)

	assert.Equal(t, "good", results[0].Partner)
	assert.Equal(t, SendCompleted, results[0].State)
	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Result.Succeeded())

	assert.Equal(t, "bad", results[1].Partner)
	assert.Equal(t, SendFailed, results[1].State)
	assert.Equal(t, status.FaultValidation, status.KindOf(results[1].Err))
	assert.False(t, results[1].Result.Succeeded())
}

func TestDispatcherTimeoutIndependence(t *testing.T) {
	fast := &fakeAdapter{name: "fast"}
	slow := &fakeAdapter{name: "slow", receive: func(ctx context.Context, updates []EvseStatusUpdate, _ Params) (status.Result[EvseStatusUpdate], error) {
		<-ctx.Done()
		return failAll(updates, ctx.Err()), ctx.Err()
	}}

	d := NewDispatcher(false)
	d.AddPartner(slow)
	d.AddPartner(fast)

	params := NewParams("evt-2")
	params.RequestTimeout = 50 * time.Millisecond

	start := time.Now()
	results := d.PushEvseStatus(context.Background(), sampleUpdates(1), params)
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	assert.Equal(t, SendTimedOut, results[0].State)
	assert.Equal(t, SendCompleted, results[1].State)
	assert.Less(t, elapsed, 2*time.Second)

	for _, item := range results[0].Result.Items {
		assert.Equal(t, status.OutcomeTimeout, item.Outcome)
	}
}

func TestDispatcherCancellationNeverSuccess(t *testing.T) {
	blocked := &fakeAdapter{name: "blocked", receive: func(ctx context.Context, updates []EvseStatusUpdate, _ Params) (status.Result[EvseStatusUpdate], error) {
		<-ctx.Done()
		return failAll(updates, ctx.Err()), ctx.Err()
	}}

	d := NewDispatcher(false)
	d.AddPartner(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results := d.PushEvseStatus(ctx, sampleUpdates(1), NewParams("evt-3"))
	require.Len(t, results, 1)
	assert.NotEqual(t, SendCompleted, results[0].State)
	for _, item := range results[0].Result.Items {
		assert.NotEqual(t, status.OutcomeSuccess, item.Outcome)
	}
}

func TestDispatcherCoalesce(t *testing.T) {
	var received atomic.Int32
	counting := &fakeAdapter{name: "counting", receive: func(_ context.Context, updates []EvseStatusUpdate, _ Params) (status.Result[EvseStatusUpdate], error) {
		received.Store(int32(len(updates)))
		return okResult(updates), nil
	}}

	d := NewDispatcher(true)
	d.AddPartner(counting)

	d.PushEvseStatus(context.Background(), sampleUpdates(3), NewParams("evt-4"))
	assert.Equal(t, int32(1), received.Load())
}

func TestUnsupportedAdapter(t *testing.T) {
	d := NewDispatcher(false)
	d.AddPartner(&struct {
		UnsupportedAdapter
	}{})

	results := d.PushEvseStatus(context.Background(), sampleUpdates(1), NewParams("evt-5"))
	require.Len(t, results, 1)
	assert.Equal(t, SendFailed, results[0].State)
	assert.Equal(t, status.FaultNotSupported, status.KindOf(results[0].Err))
}

func TestSenderLifecycle(t *testing.T) {
	s := newSender()
	assert.Equal(t, SendIdle, s.State())

	require.NoError(t, s.begin())
	assert.Equal(t, SendSending, s.State())
	assert.Error(t, s.begin())

	assert.Equal(t, SendCompleted, s.finish(nil))
	assert.Equal(t, SendIdle, s.State())

	require.NoError(t, s.begin())
	assert.Equal(t, SendFailed, s.finish(status.Conflictf("rejected")))

	require.NoError(t, s.begin())
	assert.Equal(t, SendTimedOut, s.finish(context.DeadlineExceeded))
}

func TestClientRetriesTransportErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.Partner{Name: "hubject", Url: server.URL, Token: "secret", RequestTimeout: 5})
	client.retryDelay = time.Millisecond

	result, err := client.ReceiveEvseStatus(context.Background(), sampleUpdates(1), NewParams("evt-6"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.True(t, result.Succeeded())
}

func TestClientRejectionIsFinal(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(config.Partner{Name: "hubject", Url: server.URL, Token: "secret", RequestTimeout: 5})
	client.retryDelay = time.Millisecond

	_, err := client.ReceiveEvseStatus(context.Background(), sampleUpdates(1), NewParams("evt-7"))
	require.Error(t, err)
	assert.Equal(t, status.FaultConflict, status.KindOf(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClientPerItemOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"outcome":"Success"},{"outcome":"NoOperation"},{"outcome":"Error","error":"unknown evse"}]}`))
	}))
	defer server.Close()

	client := NewClient(config.Partner{Name: "hubject", Url: server.URL, Token: "secret", RequestTimeout: 5})

	result, err := client.ReceiveEvseStatus(context.Background(), sampleUpdates(3), NewParams("evt-8"))
	require.NoError(t, err)

	counts := result.Counts()
	assert.Equal(t, 1, counts[status.OutcomeSuccess])
	assert.Equal(t, 1, counts[status.OutcomeNoOperation])
	assert.Equal(t, 1, counts[status.OutcomeError])
	assert.True(t, result.PartialFailure())
	assert.EqualError(t, result.Items[2].Err, "unknown evse")
}

func TestForwarderBatchesEvents(t *testing.T) {
	done := make(chan []EvseStatusUpdate, 1)
	collecting := &fakeAdapter{name: "collecting", receive: func(_ context.Context, updates []EvseStatusUpdate, params Params) (status.Result[EvseStatusUpdate], error) {
		assert.Equal(t, "evt-9", params.EventTrackingId)
		done <- updates
		return okResult(updates), nil
	}}

	d := NewDispatcher(false)
	d.AddPartner(collecting)
	f := NewForwarder(d)
	f.flushAfter = 20 * time.Millisecond

	for _, update := range sampleUpdates(2) {
		f.OnStatusChange(&internal.EventMessage{
			Type:       "statusChange",
			EntityKind: "evse",
			EntityId:   update.ID.String(),
			Time:       update.New.Timestamp,
			TrackingId: "evt-9",
			NewStatus:  string(update.New.Value),
			Payload:    update,
		})
	}

	select {
	case got := <-done:
		assert.Len(t, got, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder never flushed")
	}
	f.Close()
}

type stationDataAdapter struct {
	UnsupportedAdapter
	name     string
	received chan []models.ChargingStation
}

func (f *stationDataAdapter) Name() string { return f.name }

func (f *stationDataAdapter) AddOrUpdateStations(_ context.Context, stations []models.ChargingStation, _ Params) (status.Result[models.ChargingStation], error) {
	f.received <- stations
	result := status.Result[models.ChargingStation]{}
	for _, s := range stations {
		result.Items = append(result.Items, status.ItemResult[models.ChargingStation]{Item: s, Outcome: status.OutcomeSuccess})
	}
	return result, nil
}

func TestForwarderForwardsStationData(t *testing.T) {
	done := make(chan []models.ChargingStation, 1)
	data := &stationDataAdapter{name: "data", received: done}

	d := NewDispatcher(false)
	d.AddPartner(data)
	f := NewForwarder(d)
	f.flushAfter = 20 * time.Millisecond

	f.OnDataChange(&internal.EventMessage{
		Type:       "StationRegistered",
		EntityKind: "station",
		EntityId:   "DE*GEF*S1",
		Time:       t0,
		TrackingId: "evt-10",
		Payload:    &models.ChargingStation{Id: "DE*GEF*S1", PoolId: "DE*GEF*P1", OperatorId: "DE*GEF", IsEnabled: true},
	})

	select {
	case got := <-done:
		require.Len(t, got, 1)
		assert.Equal(t, "DE*GEF*S1", got[0].Id)
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder never flushed station data")
	}
	f.Close()
}

func TestClientPushesStationData(t *testing.T) {
	type receivedRequest struct {
		path      string
		dimension string
	}
	done := make(chan receivedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			Dimension string `json:"dimension"`
		}
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		done <- receivedRequest{path: r.URL.Path, dimension: envelope.Dimension}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.Partner{Name: "hubject", Url: server.URL, Token: "secret", RequestTimeout: 5})

	stations := []models.ChargingStation{{Id: "DE*GEF*S1", PoolId: "DE*GEF*P1", OperatorId: "DE*GEF", IsEnabled: true}}
	result, err := client.AddOrUpdateStations(context.Background(), stations, NewParams("evt-11"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	got := <-done
	assert.Equal(t, "/stations", got.path)
	assert.Equal(t, "addOrUpdate", got.dimension)
}

func TestUnsupportedAdapterRejectsStationData(t *testing.T) {
	d := NewDispatcher(false)
	d.AddPartner(&struct {
		UnsupportedAdapter
	}{})

	stations := []models.ChargingStation{{Id: "DE*GEF*S1"}}
	results := d.PushStationData(context.Background(), stations, NewParams("evt-12"))
	require.Len(t, results, 1)
	assert.Equal(t, SendFailed, results[0].State)
	assert.Equal(t, status.FaultNotSupported, status.KindOf(results[0].Err))
}
