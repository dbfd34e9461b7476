package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wwcp/internal"
	"wwcp/models"
	"wwcp/roaming"
	"wwcp/status"
	"wwcp/types"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type capturingListener struct {
	statusEvents  []*internal.EventMessage
	adminEvents   []*internal.EventMessage
	dataEvents    []*internal.EventMessage
	sessionEvents []*internal.EventMessage
}

func (c *capturingListener) OnStatusChange(event *internal.EventMessage) {
	c.statusEvents = append(c.statusEvents, event)
}

func (c *capturingListener) OnAdminStatusChange(event *internal.EventMessage) {
	c.adminEvents = append(c.adminEvents, event)
}

func (c *capturingListener) OnDataChange(event *internal.EventMessage) {
	c.dataEvents = append(c.dataEvents, event)
}

func (c *capturingListener) OnSessionFinished(event *internal.EventMessage) {
	c.sessionEvents = append(c.sessionEvents, event)
}

// evseEvents filters out the aggregated station transitions the handler
// also publishes.
func evseEvents(events []*internal.EventMessage) []*internal.EventMessage {
	var filtered []*internal.EventMessage
	for _, event := range events {
		if event.EntityKind == "evse" {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func newTestHandler() (*SystemHandler, *capturingListener) {
	handler := NewSystemHandler("N1", 50)
	handler.SetLogger(internal.NewLogger())
	handler.SetDebugMode(true)
	listener := &capturingListener{}
	handler.AddEventListener(listener)
	return handler, listener
}

func TestStatusNotificationRegistersAndApplies(t *testing.T) {
	handler, listener := newTestHandler()
	ws := &WebSocket{id: "GW1"}

	response, err := handler.OnStatusNotification(ws, &Notification{
		UniqueId:  "msg-1",
		Action:    ActionStatusNotification,
		EvseId:    "DE*GEF*E1",
		Status:    "Charging",
		Timestamp: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, ResponseAccepted, response.Status)

	evse, ok := handler.Network().FindEvse(types.EvseID("DE*GEF*E1"))
	require.True(t, ok)
	assert.Equal(t, types.EvseStatusCharging, evse.Status().Value)

	events := evseEvents(listener.statusEvents)
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, "msg-1", event.TrackingId)
	assert.Equal(t, "Charging", event.NewStatus)

	update, ok := event.Payload.(status.Update[types.EvseID, types.EvseStatus])
	require.True(t, ok)
	assert.Equal(t, types.EvseStatusCharging, update.New.Value)
}

func TestRegistrationPublishesDataEvents(t *testing.T) {
	handler, listener := newTestHandler()
	ws := &WebSocket{id: "GW1"}

	_, err := handler.OnStatusNotification(ws, &Notification{
		UniqueId:  "msg-1",
		Action:    ActionStatusNotification,
		EvseId:    "DE*GEF*E1",
		Status:    "Charging",
		Timestamp: t0,
	})
	require.NoError(t, err)
	require.Len(t, listener.dataEvents, 2)

	stationEvent := listener.dataEvents[0]
	assert.Equal(t, "StationRegistered", stationEvent.Type)
	assert.Equal(t, "station", stationEvent.EntityKind)
	station, ok := stationEvent.Payload.(*models.ChargingStation)
	require.True(t, ok)
	assert.Equal(t, "GW1", station.Id)
	assert.Equal(t, defaultPoolId, station.PoolId)
	assert.Equal(t, defaultOperatorId, station.OperatorId)

	evseEvent := listener.dataEvents[1]
	assert.Equal(t, "EvseRegistered", evseEvent.Type)
	evse, ok := evseEvent.Payload.(*models.Evse)
	require.True(t, ok)
	assert.Equal(t, "DE*GEF*E1", evse.Id)

	// a second notification for a known evse registers nothing new
	_, err = handler.OnStatusNotification(ws, &Notification{
		UniqueId:  "msg-2",
		Action:    ActionStatusNotification,
		EvseId:    "DE*GEF*E1",
		Status:    "Occupied",
		Timestamp: t0.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, listener.dataEvents, 2)
}

func TestStatusNotificationNoEventWithoutChange(t *testing.T) {
	handler, listener := newTestHandler()
	ws := &WebSocket{id: "GW1"}

	notification := &Notification{
		UniqueId:  "msg-1",
		Action:    ActionStatusNotification,
		EvseId:    "DE*GEF*E1",
		Status:    "Occupied",
		Timestamp: t0,
	}
	_, err := handler.OnStatusNotification(ws, notification)
	require.NoError(t, err)

	notification.UniqueId = "msg-2"
	notification.Timestamp = t0.Add(time.Minute)
	response, err := handler.OnStatusNotification(ws, notification)
	require.NoError(t, err)

	assert.Equal(t, ResponseAccepted, response.Status)
	assert.Len(t, evseEvents(listener.statusEvents), 1)
}

func TestStatusNotificationUnknownEvseRejected(t *testing.T) {
	handler, listener := newTestHandler()
	handler.SetDebugMode(false)
	ws := &WebSocket{id: "GW1"}

	response, err := handler.OnStatusNotification(ws, &Notification{
		UniqueId:  "msg-1",
		Action:    ActionStatusNotification,
		EvseId:    "DE*GEF*E9",
		Status:    "Available",
		Timestamp: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, ResponseRejected, response.Status)
	assert.Contains(t, response.Error, "unknown evse")
	assert.Empty(t, listener.statusEvents)
}

func TestAdminStatusNotificationCascades(t *testing.T) {
	handler, listener := newTestHandler()
	ws := &WebSocket{id: "GW1"}

	_, err := handler.OnStatusNotification(ws, &Notification{
		UniqueId: "msg-1", Action: ActionStatusNotification,
		EvseId: "DE*GEF*E1", Status: "Available", Timestamp: t0,
	})
	require.NoError(t, err)

	response, err := handler.OnAdminStatusNotification(ws, &Notification{
		UniqueId: "msg-2", Action: ActionAdminStatusNotification,
		EvseId: "DE*GEF*E1", Status: "OutOfService", Timestamp: t0.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, ResponseAccepted, response.Status)

	require.Len(t, listener.adminEvents, 1)
	assert.Equal(t, "OutOfService", listener.adminEvents[0].NewStatus)
}

func TestApplyEvseStatusesBatch(t *testing.T) {
	handler, _ := newTestHandler()
	ws := &WebSocket{id: "GW1"}

	_, err := handler.OnStatusNotification(ws, &Notification{
		UniqueId: "msg-1", Action: ActionStatusNotification,
		EvseId: "DE*GEF*E1", Status: "Available", Timestamp: t0,
	})
	require.NoError(t, err)

	result := handler.ApplyEvseStatuses(context.Background(), []StatusItem{
		{EvseId: "DE*GEF*E1", Status: "Charging", Timestamp: t0.Add(time.Minute)},
		{EvseId: "DE*GEF*E1", Status: "Charging", Timestamp: t0.Add(2 * time.Minute)},
		{EvseId: "", Status: "Available", Timestamp: t0.Add(time.Minute)},
	}, "batch-1")

	counts := result.Counts()
	assert.Equal(t, 1, counts[status.OutcomeSuccess])
	assert.Equal(t, 1, counts[status.OutcomeNoOperation])
	assert.Equal(t, 1, counts[status.OutcomeError])
	assert.True(t, result.PartialFailure())
}

func TestNetworkAdapterAppliesInboundUpdates(t *testing.T) {
	handler, listener := newTestHandler()
	adapter := NewNetworkAdapter("local", handler)

	entry := status.NewEntry(types.EvseStatusOutOfService, t0, "partner reported")
	updates := []roaming.EvseStatusUpdate{{ID: types.EvseID("DE*GEF*E1"), New: entry}}

	result, err := adapter.ReceiveEvseStatus(context.Background(), updates, roaming.NewParams("evt-1"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	evse, ok := handler.Network().FindEvse(types.EvseID("DE*GEF*E1"))
	require.True(t, ok)
	assert.Equal(t, types.EvseStatusOutOfService, evse.Status().Value)
	assert.NotEmpty(t, evseEvents(listener.statusEvents))

	// the same transition again is a no-op, not a failure
	result, err = adapter.ReceiveEvseStatus(context.Background(), updates, roaming.NewParams("evt-2"))
	require.NoError(t, err)
	counts := result.Counts()
	assert.Equal(t, 1, counts[status.OutcomeNoOperation])
}

func TestParseNotificationValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind status.FaultKind
	}{
		{"garbage", `{`, status.FaultValidation},
		{"missing unique id", `{"action":"Heartbeat"}`, status.FaultValidation},
		{"missing action", `{"unique_id":"1"}`, status.FaultValidation},
		{"missing evse id", `{"unique_id":"1","action":"StatusNotification","status":"Available"}`, status.FaultValidation},
		{"missing status", `{"unique_id":"1","action":"StatusNotification","evse_id":"E1"}`, status.FaultValidation},
		{"unknown action", `{"unique_id":"1","action":"Reboot"}`, status.FaultNotSupported},
		{"session without data", `{"unique_id":"1","action":"SessionFinished"}`, status.FaultValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseNotification([]byte(tc.body))
			require.Error(t, err)
			assert.Equal(t, tc.kind, status.KindOf(err))
		})
	}
}

func TestParseNotificationStampsMissingTimestamp(t *testing.T) {
	notification, err := ParseNotification([]byte(`{"unique_id":"1","action":"StatusNotification","evse_id":"E1","status":"Available"}`))
	require.NoError(t, err)
	assert.False(t, notification.Timestamp.IsZero())
}

func newTestApi(t *testing.T) (*httptest.Server, *SystemHandler) {
	t.Helper()
	handler, _ := newTestHandler()
	api := &Api{logger: internal.NewLogger()}
	router := httprouter.New()
	router.POST(apiStatusEndpoint, api.handleStatusCommand)
	router.GET(apiEvseReportEndpoint, api.handleEvseReport)
	router.GET(apiEvseHistoryEndpoint, api.handleEvseHistory)
	api.handler = handler
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, handler
}

func TestApiStatusCommandAndReport(t *testing.T) {
	server, _ := newTestApi(t)

	body, _ := json.Marshal(statusCommand{
		TrackingId: "batch-1",
		Items: []StatusItem{
			{EvseId: "DE*GEF*E1", Status: "Charging", Timestamp: t0},
			{EvseId: "DE*GEF*E2", Status: "Occupied", Timestamp: t0},
		},
	})
	resp, err := http.Post(server.URL+"/api/v1/status", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var commandResult statusCommandResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&commandResult))
	assert.Equal(t, "batch-1", commandResult.TrackingId)
	assert.Equal(t, 2, commandResult.Counts[status.OutcomeSuccess])

	reportResp, err := http.Get(server.URL + "/api/v1/report/evse")
	require.NoError(t, err)
	defer func() { _ = reportResp.Body.Close() }()
	require.Equal(t, http.StatusOK, reportResp.StatusCode)

	var report status.Report
	require.NoError(t, json.NewDecoder(reportResp.Body).Decode(&report))
	assert.Equal(t, 2, report.TotalCount)
	assert.Equal(t, 1, report.Buckets["Charging"].Count)
	assert.InDelta(t, 50.0, report.Buckets["Charging"].Percentage, 0.001)
}

func TestApiEvseHistory(t *testing.T) {
	server, handler := newTestApi(t)

	_ = handler.ApplyEvseStatuses(context.Background(), []StatusItem{
		{EvseId: "DE*GEF*E1", Status: "Charging", Timestamp: t0},
		{EvseId: "DE*GEF*E1", Status: "Available", Timestamp: t0.Add(time.Hour)},
	}, "batch-1")

	resp, err := http.Get(server.URL + "/api/v1/evse/DE*GEF*E1/history")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []status.Entry[types.EvseStatus]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.NotEmpty(t, history)
	assert.Equal(t, types.EvseStatusAvailable, history[0].Value)

	missing, err := http.Get(server.URL + "/api/v1/evse/NOPE/history")
	require.NoError(t, err)
	defer func() { _ = missing.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
