/**
 * @description
 * This file implements best-effort customer notification. The core does not
 * deliver SMS or email itself; it hands messages to the notification
 * collaborator (an AMQP queue consumed by a delivery service) and records
 * every attempt's outcome in the notification log. The recipient is the
 * phone number on the account's client record. Delivery is strictly
 * post-commit: a failed send never blocks or rolls back a posted entry.
 */

package app

import (
	"context"
	"time"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
	"github.com/hodalor/smBank-sub000/pkg/rabbitmq"
)

// NotificationSender is the outbound delivery contract the core consumes.
type NotificationSender interface {
	Send(ctx context.Context, channel domain.NotificationChannel, recipient, content string) error
}

// QueueNotifier hands notifications to the broker for asynchronous delivery.
type QueueNotifier struct {
	events   rabbitmq.Publisher
	exchange string
	queue    string
}

// NewQueueNotifier creates a notifier publishing on the given exchange and
// routing key.
func NewQueueNotifier(events rabbitmq.Publisher, exchange, queue string) *QueueNotifier {
	return &QueueNotifier{events: events, exchange: exchange, queue: queue}
}

type notificationMessage struct {
	Channel   domain.NotificationChannel `json:"channel"`
	Recipient string                     `json:"recipient"`
	Content   string                     `json:"content"`
}

// Send publishes the message for the delivery service to pick up.
func (n *QueueNotifier) Send(ctx context.Context, channel domain.NotificationChannel, recipient, content string) error {
	return n.events.Publish(ctx, n.exchange, n.queue, notificationMessage{
		Channel:   channel,
		Recipient: recipient,
		Content:   content,
	})
}

// notifyAccount resolves the account's client contact and runs one
// best-effort delivery. It is called in a goroutine after the commit,
// detached from the request context so an HTTP cancellation cannot abort it.
func (s *Service) notifyAccount(accountNumber, content string) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var client domain.Client
	if err := s.getOne(ctx, store.Clients, store.Filter{"account_number": accountNumber}, &client); err != nil {
		s.logger.Warn("no client record for notification", "account", accountNumber, "error", err)
		return
	}
	if client.Phone == "" {
		s.logger.Warn("client has no phone on file; notification skipped", "account", accountNumber)
		return
	}

	s.deliver(ctx, domain.ChannelSMS, client.Phone, content)
}

// deliver sends one message and logs the attempt's outcome to the
// notification log. A failed send never unwinds the ledger commit.
func (s *Service) deliver(ctx context.Context, channel domain.NotificationChannel, recipient, content string) {
	entry := domain.NotificationLogEntry{
		ID:        newID(),
		Channel:   channel,
		Recipient: recipient,
		Content:   content,
		OK:        true,
		SentAt:    s.now(),
	}
	if err := s.notifier.Send(ctx, channel, recipient, content); err != nil {
		entry.OK = false
		entry.Error = err.Error()
		s.logger.Warn("notification delivery failed", "channel", channel, "recipient", recipient, "error", err)
	}

	if err := s.putDoc(ctx, store.NotificationLog, entry.ID, entry); err != nil {
		s.logger.Warn("failed to record notification log entry", "error", err)
	}
}
