package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"wwcp/internal"
	"wwcp/models"
	"wwcp/types"
)

// TgBot implements EventHandler and alerts subscribers about severe status
// transitions. Routine transitions like Available to Charging are not
// forwarded, only outages and faults.
type TgBot struct {
	api           *tgbotapi.BotAPI
	database      internal.Database
	subscriptions map[int]models.AlertSubscription
	event         chan MessageContent
	send          chan MessageContent
}

type MessageContent struct {
	ChatID int64
	Text   string
}

func NewBot(apiKey string) (*TgBot, error) {
	tgBot := &TgBot{
		subscriptions: make(map[int]models.AlertSubscription),
		event:         make(chan MessageContent, 100),
		send:          make(chan MessageContent, 100),
	}
	api, err := tgbotapi.NewBotAPI(apiKey)
	if err != nil {
		return nil, err
	}
	tgBot.api = api
	return tgBot, nil
}

// SetDatabase attach database service
func (b *TgBot) SetDatabase(database internal.Database) {
	b.database = database
}

func (b *TgBot) Start() {
	b.subscriptions = make(map[int]models.AlertSubscription)
	if b.database != nil {
		subscriptions, err := b.database.GetSubscriptions()
		if err != nil {
			log.Printf("bot: error getting subscriptions: %v", err)
		} else {
			for _, subscription := range subscriptions {
				b.subscriptions[subscription.UserID] = subscription
			}
		}
	}
	go b.sendPump()
	go b.eventPump()
	go b.updatesPump()
}

// Start listening for updates
func (b *TgBot) updatesPump() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		log.Printf("bot: error getting updates: %v", err)
		return
	}
	for update := range updates {
		if update.Message == nil {
			continue
		}
		if !update.Message.IsCommand() {
			continue
		}
		switch update.Message.Command() {
		case "start":
			subscription := models.AlertSubscription{
				UserID:   update.Message.From.ID,
				ChatID:   update.Message.Chat.ID,
				Username: update.Message.From.UserName,
			}
			b.subscriptions[update.Message.From.ID] = subscription
			msg := fmt.Sprintf("Hello *%v*, you are now subscribed to alerts", update.Message.From.UserName)
			if b.database != nil {
				if err := b.database.AddSubscription(&subscription); err != nil {
					log.Printf("bot: error adding subscription: %v", err)
				}
			}
			b.send <- MessageContent{ChatID: update.Message.Chat.ID, Text: msg}
		case "stop":
			delete(b.subscriptions, update.Message.From.ID)
			if b.database != nil {
				if err := b.database.DeleteSubscription(&models.AlertSubscription{UserID: update.Message.From.ID}); err != nil {
					log.Printf("bot: error deleting subscription: %v", err)
				}
			}
			b.send <- MessageContent{ChatID: update.Message.Chat.ID, Text: "Your subscription has been removed"}
		case "status":
			msg := b.composeStatusMessage()
			b.send <- MessageContent{ChatID: update.Message.Chat.ID, Text: msg}
		}
	}
}

// eventPump sending events to all subscribers
func (b *TgBot) eventPump() {
	for {
		if event, ok := <-b.event; ok {
			for _, subscription := range b.subscriptions {
				b.sendMessage(subscription.ChatID, event.Text)
			}
		}
	}
}

// sendPump sending messages to users
func (b *TgBot) sendPump() {
	for {
		if event, ok := <-b.send; ok {
			b.sendMessage(event.ChatID, event.Text)
		}
	}
}

// sendMessage common routine to send a message via bot API
func (b *TgBot) sendMessage(id int64, text string) {
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = "MarkdownV2"
	_, err := b.api.Send(msg)
	if err != nil {
		// maybe error was while parsing, so we can send a message about this error
		msg = tgbotapi.NewMessage(id, fmt.Sprintf("Error: %v", err))
		_, err = b.api.Send(msg)
		if err != nil {
			log.Printf("bot: error sending message: %v", err)
		}
	}
}

func (b *TgBot) OnStatusChange(event *internal.EventMessage) {
	if !isSevere(event.NewStatus) {
		return
	}
	msg := fmt.Sprintf("*%v*: `%v`\n", sanitize(event.EntityId), event.NewStatus)
	if event.OldStatus != "" {
		msg += fmt.Sprintf("was: `%v`\n", event.OldStatus)
	}
	if event.Info != "" {
		msg += fmt.Sprintf("%v\n", sanitize(event.Info))
	}
	b.event <- MessageContent{Text: msg}
}

func (b *TgBot) OnAdminStatusChange(event *internal.EventMessage) {
	status := types.GetAdminStatus(event.NewStatus)
	if status.InService() {
		return
	}
	msg := fmt.Sprintf("*%v* taken out of service: `%v`\n", sanitize(event.EntityId), event.NewStatus)
	if event.Info != "" {
		msg += fmt.Sprintf("%v\n", sanitize(event.Info))
	}
	b.event <- MessageContent{Text: msg}
}

// OnDataChange registrations are not worth a notification.
func (b *TgBot) OnDataChange(_ *internal.EventMessage) {
}

func (b *TgBot) OnSessionFinished(event *internal.EventMessage) {
	record, ok := event.Payload.(*models.ChargeDetailRecord)
	if !ok {
		return
	}
	msg := fmt.Sprintf("*%v*: session finished\n", sanitize(record.EvseId))
	msg += fmt.Sprintf("Energy: %v Wh\n", record.EnergyWh)
	b.event <- MessageContent{Text: msg}
}

// isSevere reports whether a transition is worth waking somebody up for.
func isSevere(newStatus string) bool {
	switch types.GetEvseStatus(newStatus) {
	case types.EvseStatusOutOfService, types.EvseStatusOffline, types.EvseStatusFaulted:
		return true
	}
	switch types.GetStationStatus(newStatus) {
	case types.StationStatusOutage, types.StationStatusPartialOutage, types.StationStatusOffline:
		return true
	}
	return false
}

// compose status message
func (b *TgBot) composeStatusMessage() string {
	msg := "Status info:\n"
	msg += "\n"
	if b.database != nil {
		updates, err := b.database.ReadStatusUpdates("", 10)
		if err != nil {
			log.Printf("bot: error getting last status updates: %v", err)
			msg += fmt.Sprintf("Error getting last status updates:\n `%v`", err)
		} else {
			for _, u := range updates {
				msg += fmt.Sprintf("*%v*: `%v`\n", sanitize(u.EntityId), u.NewStatus)
				msg += fmt.Sprintf("`%v`\n", sanitize(u.NewTimestamp.Format("2006-01-02 15:04:05")))
				msg += "\n"
			}
		}
	}
	msg += fmt.Sprintf("Active subscriptions: %v", len(b.subscriptions))
	return msg
}

func sanitize(input string) string {
	// Define a list of reserved characters that need to be escaped
	reservedChars := "\\`*_{}[]()#+-.!|"

	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}

	return sanitized
}
