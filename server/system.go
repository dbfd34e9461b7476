package server

import (
	"fmt"
	"log"
	"time"

	"wwcp/internal"
	"wwcp/internal/config"
	"wwcp/metrics"
	"wwcp/roaming"
	"wwcp/telegram"
)

// SubProtocol is the websocket subprotocol spoken by field gateways.
const SubProtocol = "wwcp2.0"

// System ties the gateway listener, the API server, the network handler and
// the roaming push pipeline together.
type System struct {
	conf      *config.Config
	server    *Server
	api       *Api
	logger    internal.LogHandler
	handler   *SystemHandler
	forwarder *roaming.Forwarder
	location  *time.Location
}

func (sys *System) handleIncomingMessage(ws *WebSocket, data []byte) error {
	notification, err := ParseNotification(data)
	if err != nil {
		sys.logger.Warn(fmt.Sprintf("invalid frame received from %s: %s", ws.ID(), err))
		return err
	}

	var response *Response
	switch notification.Action {
	case ActionStatusNotification:
		response, err = sys.handler.OnStatusNotification(ws, notification)
	case ActionAdminStatusNotification:
		response, err = sys.handler.OnAdminStatusNotification(ws, notification)
	case ActionEnergyStatusNotification:
		response, err = sys.handler.OnEnergyStatusNotification(ws, notification)
	case ActionSessionFinished:
		response, err = sys.handler.OnSessionFinished(ws, notification)
	case ActionHeartbeat:
		response, err = sys.handler.OnHeartbeat(ws, notification)
	}
	if err != nil {
		return err
	}
	return sys.server.SendResponse(ws, response)
}

func (sys *System) Start() {

	go func() {
		if err := sys.server.Start(); err != nil {
			sys.logger.Error("websocket server failed", err)
		}
	}()

	go func() {
		if err := sys.api.Start(); err != nil {
			sys.logger.Error("api server failed", err)
		}
	}()

	go func() {
		if err := metrics.Listen(sys.conf); err != nil {
			sys.logger.Error("metrics server failed", err)
		}
	}()

	select {}
}

func NewSystem(conf *config.Config) (*System, error) {
	sys := &System{conf: conf}

	log.Println("set time zone to " + conf.TimeZone)
	location, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone initialization failed: %s", err)
	}
	sys.location = location

	var database internal.Database
	if conf.Mongo.Enabled {
		mongo, err := internal.NewMongoClient(conf)
		if err != nil {
			return nil, fmt.Errorf("mongodb setup failed: %s", err)
		}
		if mongo != nil {
			database = mongo
			log.Println("mongodb is configured and enabled")
		}
	} else {
		log.Println("database is disabled")
	}

	// logger with database sink for the message handling
	logService := internal.NewLogger()
	logService.SetDebugMode(conf.IsDebug)
	logService.SetDatabase(database)
	sys.logger = logService

	// network state handler
	systemHandler := NewSystemHandler(conf.Network.Id, conf.Network.MaxHistorySize)
	systemHandler.SetDatabase(database)
	systemHandler.SetLogger(logService)
	systemHandler.SetDebugMode(conf.IsDebug)
	sys.handler = systemHandler

	// roaming push pipeline
	dispatcher := roaming.NewDispatcher(conf.Network.Coalesce)
	dispatcher.SetLogger(logService)
	for _, partner := range conf.Partners {
		dispatcher.AddPartner(roaming.NewClient(partner))
		log.Println("roaming partner configured: " + partner.Name)
	}
	if dispatcher.PartnerCount() > 0 {
		forwarder := roaming.NewForwarder(dispatcher)
		forwarder.SetLogger(logService)
		systemHandler.AddEventListener(forwarder)
		sys.forwarder = forwarder
	} else {
		log.Println("no roaming partners configured, updates are not forwarded")
	}

	if conf.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(conf.Telegram.ApiKey)
		if err != nil {
			return nil, fmt.Errorf("telegram bot setup failed: %s", err)
		}
		telegramBot.SetDatabase(database)
		telegramBot.Start()
		systemHandler.AddEventListener(telegramBot)
		log.Println("telegram bot is configured and enabled")
	}

	// websocket listener
	wsServer := NewServer(conf)
	wsServer.SetLogger(logService)
	wsServer.AddSupportedSubProtocol(SubProtocol)
	wsServer.SetMessageHandler(sys.handleIncomingMessage)
	sys.server = wsServer

	if err = systemHandler.OnStart(); err != nil {
		return nil, err
	}

	// api server
	apiServer := NewServerApi(conf, logService)
	apiServer.SetSystemHandler(systemHandler)
	apiServer.SetDatabase(database)
	sys.api = apiServer

	return sys, nil
}
