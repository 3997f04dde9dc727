package notify

import (
	"context"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/sirupsen/logrus"
)

// LogNotifier writes messages to the info log. Used in development and as
// the fallback when no remote backend is configured.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	utils.InfoLogger.WithFields(logrus.Fields{
		"channel":   msg.Channel,
		"recipient": msg.Recipient,
		"subject":   msg.Subject,
	}).Info("Notification")
	return nil
}
