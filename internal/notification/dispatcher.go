package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/websocket"
)

// Message is the payload delivered to a user over the notification channels.
type Message struct {
	UserID  string    `json:"user_id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Publisher is the broker-side delivery channel. The MQTT client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte) error
	NotifyTopic(userID string) string
}

// Broadcaster mirrors notifications to connected dashboards. The websocket
// hub satisfies it.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// Dispatcher delivers routed notifications best-effort: a broker publish
// failure is returned for the caller to log, but the dashboard mirror always
// goes out.
type Dispatcher struct {
	pub Publisher
	hub Broadcaster
	log *logger.Logger
}

func NewDispatcher(pub Publisher, hub Broadcaster, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		pub: pub,
		hub: hub,
		log: log,
	}
}

// Notify delivers one notification to a user. Honors ctx cancellation before
// the broker publish; the publish itself carries the client's own timeout.
func (d *Dispatcher) Notify(ctx context.Context, userID, subject, body string) error {
	msg := Message{
		UserID:  userID,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now(),
	}

	if d.hub != nil {
		d.hub.Broadcast(websocket.MessageNotification, msg)
	}

	if d.pub == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("notification to %s cancelled: %w", userID, ctx.Err())
	default:
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification for %s: %w", userID, err)
	}

	if err := d.pub.Publish(d.pub.NotifyTopic(userID), payload); err != nil {
		return fmt.Errorf("failed to deliver notification to %s: %w", userID, err)
	}

	d.log.Debug("Notification delivered to %s: %s", userID, subject)
	return nil
}
