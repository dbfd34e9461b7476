package server

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"wwcp/internal"
	"wwcp/internal/config"
	"wwcp/status"
)

const (
	apiStatusEndpoint        = "/api/v1/status"
	apiEvseReportEndpoint    = "/api/v1/report/evse"
	apiStationReportEndpoint = "/api/v1/report/station"
	apiAdminReportEndpoint   = "/api/v1/report/admin"
	apiEvseHistoryEndpoint   = "/api/v1/evse/:id/history"
	apiLogEndpoint           = "/api/v1/log"
)

type Api struct {
	conf       *config.Config
	httpServer *http.Server
	handler    *SystemHandler
	database   internal.Database
	logger     internal.LogHandler
}

func NewServerApi(conf *config.Config, logger internal.LogHandler) *Api {
	server := Api{
		conf:   conf,
		logger: logger,
	}
	router := httprouter.New()
	router.POST(apiStatusEndpoint, server.handleStatusCommand)
	router.GET(apiEvseReportEndpoint, server.handleEvseReport)
	router.GET(apiStationReportEndpoint, server.handleStationReport)
	router.GET(apiAdminReportEndpoint, server.handleAdminReport)
	router.GET(apiEvseHistoryEndpoint, server.handleEvseHistory)
	router.GET(apiLogEndpoint, server.handleLog)
	server.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", conf.Api.BindIP, conf.Api.Port),
		Handler: router,
	}
	return &server
}

func (s *Api) SetSystemHandler(handler *SystemHandler) {
	s.handler = handler
}

func (s *Api) SetDatabase(database internal.Database) {
	s.database = database
}

func (s *Api) Start() error {
	var err error
	if s.conf.Api.TLS {
		cert, certErr := tls.LoadX509KeyPair(s.conf.Api.CertFile, s.conf.Api.KeyFile)
		if certErr != nil {
			return fmt.Errorf("api: failed to load certificate: %v", certErr)
		}
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	return err
}

// statusCommand is the body of a batch status request. A tracking id may be
// supplied by the caller; a missing one gets generated so the batch is still
// traceable.
type statusCommand struct {
	TrackingId string       `json:"tracking_id,omitempty"`
	Items      []StatusItem `json:"items"`
}

type statusCommandResult struct {
	TrackingId string                   `json:"tracking_id"`
	Counts     map[status.Outcome]int   `json:"counts"`
	Items      []statusCommandItemState `json:"items"`
}

type statusCommandItemState struct {
	EvseId  string `json:"evse_id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *Api) handleStatusCommand(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cmd statusCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.logger.Warn(fmt.Sprintf("api: error parsing command from %s: %s", r.RemoteAddr, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(cmd.Items) == 0 {
		s.logger.Warn(fmt.Sprintf("api: empty status command from %s", r.RemoteAddr))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if cmd.TrackingId == "" {
		cmd.TrackingId = uuid.NewString()
	}

	result := s.handler.ApplyEvseStatuses(r.Context(), cmd.Items, cmd.TrackingId)

	response := statusCommandResult{
		TrackingId: cmd.TrackingId,
		Counts:     result.Counts(),
	}
	for _, item := range result.Items {
		state := statusCommandItemState{
			EvseId:  item.Item.EvseId,
			Outcome: string(item.Outcome),
		}
		if item.Err != nil {
			state.Error = item.Err.Error()
		}
		response.Items = append(response.Items, state)
	}
	s.sendJson(w, response)
}

func (s *Api) handleEvseReport(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendJson(w, s.handler.EvseStatusReport())
}

func (s *Api) handleStationReport(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendJson(w, s.handler.StationStatusReport())
}

func (s *Api) handleAdminReport(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendJson(w, s.handler.EvseAdminStatusReport())
}

func (s *Api) handleEvseHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	skip := queryInt(r, "skip", 0)
	take := queryInt(r, "take", 0)
	history, err := s.handler.EvseStatusHistory(params.ByName("id"), skip, take)
	if err != nil {
		if status.KindOf(err) == status.FaultNotFound {
			w.WriteHeader(http.StatusNotFound)
		} else {
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}
	s.sendJson(w, history)
}

func (s *Api) handleLog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.database == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	messages, err := s.database.ReadLog()
	if err != nil {
		s.logger.Error("api: reading log", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.sendJson(w, messages)
}

func (s *Api) sendJson(w http.ResponseWriter, data interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("api: encoding response", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
