package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/services"
	"github.com/iota-uz/approvals/pkg/eventbus"
)

// TransitionEventsHandler writes one structured log line per committed
// transition.
type TransitionEventsHandler struct {
	logger *logrus.Entry
}

func RegisterTransitionEventHandlers(bus eventbus.Bus[*services.TransitionEvent], logger *logrus.Logger) *TransitionEventsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &TransitionEventsHandler{logger: logger.WithField("component", "requests.events")}
	bus.Subscribe(h.onTransition)
	return h
}

func (h *TransitionEventsHandler) onTransition(ctx context.Context, event *services.TransitionEvent) error {
	if event == nil {
		return nil
	}
	h.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id":   event.EventID.String(),
		"request_id": event.RequestID,
		"actor_id":   event.ActorID,
		"from":       event.From,
		"to":         event.To,
		"notified":   event.Notified,
	}).Infof("request %s", event.Transition)
	return nil
}
