package notify

import (
	"encoding/json"
	"fmt"

	"parkhub/internal/domain"
	"parkhub/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier posts booking lifecycle summaries to an ops chat. It
// subscribes to the event bus and never blocks the booking flow: send
// failures are logged and dropped.
type TelegramNotifier struct {
	sender domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, logger: logger}
}

// Subscribe wires the notifier to booking events on the bus.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingOpened, n.handleEvent)
	bus.Subscribe(events.EventBookingCompleted, n.handleEvent)
}

func (n *TelegramNotifier) handleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event payload error")
		return err
	}

	text := n.formatMessage(event.Type, payload)
	if text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("telegram send error")
		return err
	}
	return nil
}

func (n *TelegramNotifier) formatMessage(eventType string, p events.BookingEventPayload) string {
	spot := p.SpotName
	if spot == "" {
		spot = p.SpotID
	}

	switch eventType {
	case events.EventBookingOpened:
		return fmt.Sprintf("🅿️ Booking opened\nSpot: %s\nStarted: %s\nID: %s",
			spot, p.StartTime.Format("02.01.2006 15:04"), p.BookingID)
	case events.EventBookingCompleted:
		cost := int64(0)
		if p.TotalCost != nil {
			cost = *p.TotalCost
		}
		return fmt.Sprintf("✅ Booking completed\nSpot: %s\nDuration: %s\nTotal: %d\nID: %s",
			spot, p.Duration, cost, p.BookingID)
	default:
		return ""
	}
}
