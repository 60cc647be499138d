package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tickify/tickify/internal/events"
)

// StartEventRelay subscribes a relay to every domain event type. Each
// event is logged and, when a webhook URL is configured, forwarded as JSON.
// Delivery is best-effort; the ticket workflow never waits on it.
func StartEventRelay(dispatcher events.Dispatcher, webhookURL string, logger *zap.Logger) {
	relay := &eventRelay{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketDeleted,
		events.EventCommentAdded,
	} {
		dispatcher.Subscribe(eventType, relay.handle)
	}
}

type eventRelay struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

func (r *eventRelay) handle(ctx context.Context, event events.Event) error {
	r.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID))

	if r.webhookURL == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("event marshal failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(payload))
	if err != nil {
		r.logger.Warn("webhook request build failed", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("webhook delivery failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.logger.Warn("webhook rejected event",
			zap.String("event_id", event.ID),
			zap.Int("status", resp.StatusCode))
	}
	return nil
}
