package handler

import (
	"context"

	"github.com/civicpulse/mayoralert/types"
)

// LogNotifier is a types.Notifier that only logs the fan-out. No message is
// delivered to the recipients.
type LogNotifier struct {
	logger types.Logger
}

func NewLogNotifier(logger types.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyAlertCreated(_ context.Context, alert *types.Alert, recipients int64) error {
	n.logger.WithFields(map[string]any{"alertId": alert.ID, "sentBy": alert.SentBy}).
		Infof("Mayor alert sent to %d users and admins", recipients)

	return nil
}
