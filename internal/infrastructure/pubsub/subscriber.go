package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"gmailarchive/internal/logging"
)

// Notification is the payload Gmail publishes for a mailbox change.
type Notification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Subscriber receives Gmail notifications from a Pub/Sub subscription, one
// message at a time.
type Subscriber struct {
	client         *pubsub.Client
	subscriptionID string
	logger         *slog.Logger

	mu           sync.Mutex
	processedIDs map[uint64]bool
}

// NewSubscriber connects to Pub/Sub. Client options are passed through,
// e.g. to use an emulator connection.
func NewSubscriber(ctx context.Context, projectID, subscriptionID string, logger *slog.Logger, opts ...option.ClientOption) (*Subscriber, error) {
	if projectID == "" || subscriptionID == "" {
		return nil, fmt.Errorf("pubsub project and subscription are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &Subscriber{
		client:         client,
		subscriptionID: subscriptionID,
		logger:         logging.WithOperation(logger, "pubsub"),
		processedIDs:   make(map[uint64]bool),
	}, nil
}

// Listen blocks until ctx is cancelled, calling handler once per distinct
// history id. Malformed and duplicate notifications are acknowledged and
// dropped.
func (s *Subscriber) Listen(ctx context.Context, handler func(ctx context.Context, n Notification)) error {
	sub := s.client.Subscription(s.subscriptionID)
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	s.logger.Info("listening for notifications", slog.String("subscription", s.subscriptionID))

	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		defer m.Ack()

		n, err := parseNotification(m.Data)
		if err != nil {
			s.logger.Warn("dropping malformed notification", logging.Err(err))
			return
		}

		if !s.markProcessed(n.HistoryID) {
			s.logger.Debug("duplicate notification", slog.Uint64("history_id", n.HistoryID))
			return
		}

		s.logger.Info("new notification", slog.Uint64("history_id", n.HistoryID))
		handler(ctx, n)
	})
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

// markProcessed reports whether id was seen for the first time.
func (s *Subscriber) markProcessed(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processedIDs[id] {
		return false
	}
	s.processedIDs[id] = true
	return true
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

func parseNotification(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	if n.HistoryID == 0 {
		return Notification{}, fmt.Errorf("notification without history id")
	}
	return n, nil
}
